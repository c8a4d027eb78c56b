package client

import (
	"context"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
)

// request sends an operation that allocates a correlation id and returns it.
func (c *Client) request(ctx context.Context, code schema.Opcode, args schema.Args) (int64, error) {
	rec, err := c.Send(ctx, code, args)
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (c *Client) call(ctx context.Context, code schema.Opcode, args schema.Args) error {
	_, err := c.Send(ctx, code, args)
	return err
}

// cancel ends the subscription or request the caller's id names.
func (c *Client) cancel(ctx context.Context, code schema.Opcode, id int64) error {
	return c.call(ctx, code, withReqID(schema.Args{}, id))
}

func withReqID(a schema.Args, id int64) schema.Args {
	return a.Set("req_id", protocol.Int(id))
}

func contractArgs(contract schema.Contract) schema.Args {
	return contract.AppendTo(schema.Args{})
}

func boolArg(b bool) protocol.Value {
	return protocol.Bool(b)
}

// ReqCurrentTime asks for the gateway clock; the reply arrives on Messages.
func (c *Client) ReqCurrentTime(ctx context.Context) error {
	return c.call(ctx, schema.ReqCurrentTime, nil)
}

func (c *Client) SetServerLogLevel(ctx context.Context, level int) error {
	return c.call(ctx, schema.SetServerLogLevel, schema.Args{"log_level": protocol.Int(int64(level))})
}

// ReqContractDetails looks up every contract matching contract.
func (c *Client) ReqContractDetails(ctx context.Context, contract schema.Contract) (int64, error) {
	return c.request(ctx, schema.ReqContractData, contractArgs(contract))
}

func (c *Client) ReqSecDefOptParams(
	ctx context.Context,
	underlyingSymbol string,
	futFopExchange string,
	underlyingSecType string,
	underlyingConID int64,
) (int64, error) {
	return c.request(ctx, schema.ReqSecDefOptParams, schema.Args{
		"underlying_symbol":   protocol.String(underlyingSymbol),
		"fut_fop_exchange":    protocol.String(futFopExchange),
		"underlying_sec_type": protocol.String(underlyingSecType),
		"underlying_con_id":   protocol.Int(underlyingConID),
	})
}

func (c *Client) ReqMatchingSymbols(ctx context.Context, pattern string) (int64, error) {
	return c.request(ctx, schema.ReqMatchingSymbols, schema.Args{"pattern": protocol.String(pattern)})
}

func (c *Client) ReqNewsBulletins(ctx context.Context, allMessages bool) error {
	return c.call(ctx, schema.ReqNewsBulletins, schema.Args{"all_msgs": boolArg(allMessages)})
}

func (c *Client) CancelNewsBulletins(ctx context.Context) error {
	return c.call(ctx, schema.CancelNewsBulletins, nil)
}

func (c *Client) ReqNewsProviders(ctx context.Context) error {
	return c.call(ctx, schema.ReqNewsProviders, nil)
}

func (c *Client) ReqNewsArticle(ctx context.Context, providerCode, articleID string, opts schema.Options) (int64, error) {
	return c.request(ctx, schema.ReqNewsArticle, schema.Args{
		"provider_code":        protocol.String(providerCode),
		"article_id":           protocol.String(articleID),
		"news_article_options": opts.Value(),
	})
}

type HistoricalNewsRequest struct {
	ConID         int64
	ProviderCodes string
	StartDateTime string
	EndDateTime   string
	TotalResults  int
	Options       schema.Options
}

func (c *Client) ReqHistoricalNews(ctx context.Context, req HistoricalNewsRequest) (int64, error) {
	args := schema.Args{
		"con_id":                  protocol.Int(req.ConID),
		"provider_codes":          protocol.String(req.ProviderCodes),
		"start_date_time":         protocol.String(req.StartDateTime),
		"end_date_time":           protocol.String(req.EndDateTime),
		"historical_news_options": req.Options.Value(),
	}
	if req.TotalResults != 0 {
		args["total_results"] = protocol.Int(int64(req.TotalResults))
	}
	return c.request(ctx, schema.ReqHistoricalNews, args)
}

func (c *Client) ReqScannerSubscription(
	ctx context.Context,
	sub schema.ScannerSubscription,
	filterOptions schema.Options,
	opts schema.Options,
) (int64, error) {
	args := sub.AppendTo(schema.Args{})
	args["scanner_subscription_filter_options"] = filterOptions.Value()
	args["scanner_subscription_options"] = opts.Value()
	return c.request(ctx, schema.ReqScannerSubscription, args)
}

func (c *Client) CancelScannerSubscription(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelScannerSubscription, id)
}

func (c *Client) ReqScannerParameters(ctx context.Context) error {
	return c.call(ctx, schema.ReqScannerParameters, nil)
}

func (c *Client) VerifyRequest(ctx context.Context, apiName, apiVersion string) error {
	return c.call(ctx, schema.VerifyRequest, schema.Args{
		"api_name":    protocol.String(apiName),
		"api_version": protocol.String(apiVersion),
	})
}

func (c *Client) VerifyMessage(ctx context.Context, apiData string) error {
	return c.call(ctx, schema.VerifyMessage, schema.Args{"api_data": protocol.String(apiData)})
}

func (c *Client) VerifyAndAuthRequest(ctx context.Context, apiName, apiVersion, opaqueISVKey string) error {
	return c.call(ctx, schema.VerifyAndAuthRequest, schema.Args{
		"api_name":       protocol.String(apiName),
		"api_version":    protocol.String(apiVersion),
		"opaque_isv_key": protocol.String(opaqueISVKey),
	})
}

func (c *Client) VerifyAndAuthMessage(ctx context.Context, apiData, xyzResponse string) error {
	return c.call(ctx, schema.VerifyAndAuthMessage, schema.Args{
		"api_data":     protocol.String(apiData),
		"xyz_response": protocol.String(xyzResponse),
	})
}

func (c *Client) QueryDisplayGroups(ctx context.Context) (int64, error) {
	return c.request(ctx, schema.QueryDisplayGroups, nil)
}

func (c *Client) SubscribeToGroupEvents(ctx context.Context, groupID int) (int64, error) {
	return c.request(ctx, schema.SubscribeToGroupEvents, schema.Args{"group_id": protocol.Int(int64(groupID))})
}

// UpdateDisplayGroup takes the id returned by SubscribeToGroupEvents.
func (c *Client) UpdateDisplayGroup(ctx context.Context, id int64, contractInfo string) error {
	return c.call(ctx, schema.UpdateDisplayGroup, withReqID(schema.Args{
		"contract_info": protocol.String(contractInfo),
	}, id))
}

func (c *Client) UnsubscribeFromGroupEvents(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.UnsubscribeFromGroupEvts, id)
}

func (c *Client) ReqWshMetaData(ctx context.Context) (int64, error) {
	return c.request(ctx, schema.ReqWshMetaData, nil)
}

func (c *Client) CancelWshMetaData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelWshMetaData, id)
}

// WshEventData selects calendar events by contract or by a JSON filter.
type WshEventData struct {
	ConID           int64
	Filter          string
	FillWatchlist   bool
	FillPortfolio   bool
	FillCompetitors bool
	StartDate       string
	EndDate         string
	TotalLimit      int64
}

func (c *Client) ReqWshEventData(ctx context.Context, req WshEventData) (int64, error) {
	args := schema.Args{
		"con_id":           protocol.Int(req.ConID),
		"filter":           protocol.String(req.Filter),
		"fill_watchlist":   boolArg(req.FillWatchlist),
		"fill_portfolio":   boolArg(req.FillPortfolio),
		"fill_competitors": boolArg(req.FillCompetitors),
		"start_date":       protocol.String(req.StartDate),
		"end_date":         protocol.String(req.EndDate),
	}
	if req.TotalLimit != 0 {
		args["total_limit"] = protocol.Int(req.TotalLimit)
	}
	return c.request(ctx, schema.ReqWshEventData, args)
}

func (c *Client) CancelWshEventData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelWshEventData, id)
}
