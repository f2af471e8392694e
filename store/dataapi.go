package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice/redshiftdataapiserviceiface"
	"github.com/rs/zerolog/log"
)

const (
	statusFinished = "FINISHED"
	statusFailed   = "FAILED"
	statusAborted  = "ABORTED"

	dataAPITimeLayout   = "2006-01-02 15:04:05"
	defaultPollInterval = 250 * time.Millisecond
)

// DataAPITarget names the cluster (or serverless workgroup) and the
// credentials the Data API should use.
type DataAPITarget struct {
	ClusterIdentifier string
	WorkgroupName     string
	Database          string
	DbUser            string
	SecretArn         string
}

// DataAPIExecutor runs statements through the Redshift Data API. Statements are
// asynchronous there, so each call submits, polls and then pages the result.
type DataAPIExecutor struct {
	api          redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI
	target       DataAPITarget
	pollInterval time.Duration
}

func NewDataAPIExecutor(api redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI, target DataAPITarget) *DataAPIExecutor {
	return &DataAPIExecutor{
		api:          api,
		target:       target,
		pollInterval: defaultPollInterval,
	}
}

func (e *DataAPIExecutor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	id, desc, err := e.run(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if !aws.BoolValue(desc.HasResultSet) {
		return nil, nil
	}
	return e.fetch(ctx, id)
}

func (e *DataAPIExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	_, desc, err := e.run(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return aws.Int64Value(desc.ResultRows), nil
}

func (e *DataAPIExecutor) Ping(ctx context.Context) error {
	_, err := e.Query(ctx, "SELECT 1")
	return err
}

func (e *DataAPIExecutor) Close() error {
	return nil
}

func (e *DataAPIExecutor) run(ctx context.Context, query string, args []any) (string, *redshiftdataapiservice.DescribeStatementOutput, error) {
	sqlText, params := bindNamed(query, args)

	input := &redshiftdataapiservice.ExecuteStatementInput{
		Database: aws.String(e.target.Database),
		Sql:      aws.String(sqlText),
	}
	if len(params) > 0 {
		input.Parameters = params
	}
	if e.target.ClusterIdentifier != "" {
		input.ClusterIdentifier = aws.String(e.target.ClusterIdentifier)
	}
	if e.target.WorkgroupName != "" {
		input.WorkgroupName = aws.String(e.target.WorkgroupName)
	}
	if e.target.DbUser != "" {
		input.DbUser = aws.String(e.target.DbUser)
	}
	if e.target.SecretArn != "" {
		input.SecretArn = aws.String(e.target.SecretArn)
	}

	out, err := e.api.ExecuteStatementWithContext(ctx, input)
	if err != nil {
		return "", nil, wrapErr(ctx, "execute statement", err)
	}
	id := aws.StringValue(out.Id)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		desc, err := e.api.DescribeStatementWithContext(ctx, &redshiftdataapiservice.DescribeStatementInput{
			Id: aws.String(id),
		})
		if err != nil {
			if ctx.Err() != nil {
				e.cancel(id)
			}
			return "", nil, wrapErr(ctx, "describe statement", err)
		}

		switch aws.StringValue(desc.Status) {
		case statusFinished:
			return id, desc, nil
		case statusFailed, statusAborted:
			return "", nil, &Error{
				Op:  "statement " + strings.ToLower(aws.StringValue(desc.Status)),
				Err: fmt.Errorf("%s", aws.StringValue(desc.Error)),
			}
		}

		select {
		case <-ctx.Done():
			e.cancel(id)
			return "", nil, wrapErr(ctx, "wait for statement", ctx.Err())
		case <-ticker.C:
		}
	}
}

// cancel uses its own short deadline since the request context is already done.
func (e *DataAPIExecutor) cancel(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := e.api.CancelStatementWithContext(ctx, &redshiftdataapiservice.CancelStatementInput{
		Id: aws.String(id),
	})
	if err != nil {
		log.Warn().Err(err).Str("statement_id", id).Msg("Failed to cancel Data API statement")
	}
}

func (e *DataAPIExecutor) fetch(ctx context.Context, id string) ([]Row, error) {
	var (
		rows  []Row
		cols  []string
		token *string
	)
	for {
		out, err := e.api.GetStatementResultWithContext(ctx, &redshiftdataapiservice.GetStatementResultInput{
			Id:        aws.String(id),
			NextToken: token,
		})
		if err != nil {
			return nil, wrapErr(ctx, "get statement result", err)
		}

		if cols == nil {
			cols = make([]string, len(out.ColumnMetadata))
			for i, meta := range out.ColumnMetadata {
				name := aws.StringValue(meta.Label)
				if name == "" {
					name = aws.StringValue(meta.Name)
				}
				cols[i] = name
			}
		}

		for _, record := range out.Records {
			row := make(Row, len(cols))
			for i, field := range record {
				if i < len(cols) {
					row[cols[i]] = fieldValue(field)
				}
			}
			rows = append(rows, row)
		}

		if aws.StringValue(out.NextToken) == "" {
			return rows, nil
		}
		token = out.NextToken
	}
}

func fieldValue(f *redshiftdataapiservice.Field) any {
	switch {
	case f == nil, aws.BoolValue(f.IsNull):
		return nil
	case f.StringValue != nil:
		return *f.StringValue
	case f.LongValue != nil:
		return *f.LongValue
	case f.DoubleValue != nil:
		return *f.DoubleValue
	case f.BooleanValue != nil:
		return *f.BooleanValue
	case f.BlobValue != nil:
		return string(f.BlobValue)
	}
	return nil
}

var positional = regexp.MustCompile(`\$(\d+)`)

// bindNamed rewrites $N placeholders to the :pN form the Data API expects and
// renders the arguments as text. The API has no typed or null parameters, so
// nil and the empty string are inlined as NULL and ''.
func bindNamed(query string, args []any) (string, []*redshiftdataapiservice.SqlParameter) {
	var params []*redshiftdataapiservice.SqlParameter
	bound := make(map[int]bool)

	sqlText := positional.ReplaceAllStringFunc(query, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(args) {
			return m
		}
		text, ok := paramText(args[n-1])
		if !ok {
			return "NULL"
		}
		if text == "" {
			return "''"
		}
		name := "p" + strconv.Itoa(n)
		if !bound[n] {
			bound[n] = true
			params = append(params, &redshiftdataapiservice.SqlParameter{
				Name:  aws.String(name),
				Value: aws.String(text),
			})
		}
		return ":" + name
	})
	return sqlText, params
}

func paramText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case time.Time:
		return x.UTC().Format(dataAPITimeLayout), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}
