package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
)

type mockSTSAPI struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (m *mockSTSAPI) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.out, m.err
}

func TestGetAccountID(t *testing.T) {
	api := &mockSTSAPI{out: &sts.GetCallerIdentityOutput{Account: awssdk.String("123456789012")}}
	assert.Equal(t, "123456789012", GetAccountID(context.Background(), api))
}

func TestGetAccountID_ErrorIsNonFatal(t *testing.T) {
	api := &mockSTSAPI{err: errors.New("expired token")}
	assert.Equal(t, "", GetAccountID(context.Background(), api))
}

func TestServiceClient_AccountID(t *testing.T) {
	c := &ServiceClient{STS: &mockSTSAPI{out: &sts.GetCallerIdentityOutput{Account: awssdk.String("210987654321")}}}
	assert.Equal(t, "210987654321", c.AccountID(context.Background()))
}
