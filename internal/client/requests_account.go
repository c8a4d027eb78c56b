package client

import (
	"context"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
)

// ReqAccountUpdates starts or stops the account and portfolio stream.
func (c *Client) ReqAccountUpdates(ctx context.Context, subscribe bool, account string) error {
	return c.call(ctx, schema.ReqAcctData, schema.Args{
		"subscribe": boolArg(subscribe),
		"acct_code": protocol.String(account),
	})
}

func (c *Client) ReqExecutions(ctx context.Context, filter schema.ExecutionFilter) (int64, error) {
	return c.request(ctx, schema.ReqExecutions, filter.AppendTo(schema.Args{}))
}

func (c *Client) ReqManagedAccts(ctx context.Context) error {
	return c.call(ctx, schema.ReqManagedAccts, nil)
}

// FA data types accepted by RequestFA and ReplaceFA.
const (
	FAGroups   = 1
	FAProfiles = 2
	FAAliases  = 3
)

func (c *Client) RequestFA(ctx context.Context, faDataType int) error {
	return c.call(ctx, schema.RequestFA, schema.Args{"fa_data_type": protocol.Int(int64(faDataType))})
}

// ReplaceFA returns a request id when the server acknowledges replacements,
// and 0 otherwise.
func (c *Client) ReplaceFA(ctx context.Context, faDataType int, cxml string) (int64, error) {
	return c.request(ctx, schema.ReplaceFA, schema.Args{
		"fa_data_type": protocol.Int(int64(faDataType)),
		"cxml":         protocol.String(cxml),
	})
}

func (c *Client) ReqPositions(ctx context.Context) error {
	return c.call(ctx, schema.ReqPositions, nil)
}

func (c *Client) CancelPositions(ctx context.Context) error {
	return c.call(ctx, schema.CancelPositions, nil)
}

// ReqAccountSummary subscribes to tags for group, "All" when empty.
func (c *Client) ReqAccountSummary(ctx context.Context, group string, tags schema.TagList) (int64, error) {
	args := schema.Args{"tags": tags.Value()}
	if group != "" {
		args["group_name"] = protocol.String(group)
	}
	return c.request(ctx, schema.ReqAccountSummary, args)
}

func (c *Client) CancelAccountSummary(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelAccountSummary, id)
}

func (c *Client) ReqPositionsMulti(ctx context.Context, account, modelCode string) (int64, error) {
	return c.request(ctx, schema.ReqPositionsMulti, schema.Args{
		"account":    protocol.String(account),
		"model_code": protocol.String(modelCode),
	})
}

func (c *Client) CancelPositionsMulti(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelPositionsMulti, id)
}

func (c *Client) ReqAccountUpdatesMulti(ctx context.Context, account, modelCode string, ledgerAndNLV bool) (int64, error) {
	return c.request(ctx, schema.ReqAccountUpdatesMulti, schema.Args{
		"account":        protocol.String(account),
		"model_code":     protocol.String(modelCode),
		"ledger_and_nlv": boolArg(ledgerAndNLV),
	})
}

func (c *Client) CancelAccountUpdatesMulti(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelAccountUpdatesMulti, id)
}

func (c *Client) ReqSoftDollarTiers(ctx context.Context) (int64, error) {
	return c.request(ctx, schema.ReqSoftDollarTiers, nil)
}

func (c *Client) ReqFamilyCodes(ctx context.Context) error {
	return c.call(ctx, schema.ReqFamilyCodes, nil)
}

func (c *Client) ReqPnL(ctx context.Context, account, modelCode string) (int64, error) {
	return c.request(ctx, schema.ReqPnL, schema.Args{
		"account":    protocol.String(account),
		"model_code": protocol.String(modelCode),
	})
}

func (c *Client) CancelPnL(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelPnL, id)
}

func (c *Client) ReqPnLSingle(ctx context.Context, account, modelCode string, conID int64) (int64, error) {
	return c.request(ctx, schema.ReqPnLSingle, schema.Args{
		"account":    protocol.String(account),
		"model_code": protocol.String(modelCode),
		"con_id":     protocol.Int(conID),
	})
}

func (c *Client) CancelPnLSingle(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelPnLSingle, id)
}

func (c *Client) ReqUserInfo(ctx context.Context) (int64, error) {
	return c.request(ctx, schema.ReqUserInfo, nil)
}
