package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice"
	"github.com/rs/zerolog/log"
)

// Client owns the AWS session used to reach the warehouse through the
// Redshift Data API. Credentials come from the default provider chain.
type Client struct {
	session *session.Session
	region  string
	data    *redshiftdataapiservice.RedshiftDataAPIService
}

func NewClient(region string) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		log.Error().Err(err).Str("region", region).Msg("Failed to create AWS session")
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	log.Info().
		Str("region", region).
		Msg("AWS session created successfully")

	return &Client{
		session: sess,
		region:  region,
		data:    redshiftdataapiservice.New(sess),
	}, nil
}

func (c *Client) Region() string {
	return c.region
}

func (c *Client) RedshiftData() *redshiftdataapiservice.RedshiftDataAPIService {
	return c.data
}
