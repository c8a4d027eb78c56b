package client

import (
	"context"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
)

type MarketDataOptions struct {
	GenericTicks       schema.TagList
	Snapshot           bool
	RegulatorySnapshot bool
	Options            schema.Options
}

// ReqMktData subscribes to top-of-book data and returns the request id.
func (c *Client) ReqMktData(ctx context.Context, contract schema.Contract, opts MarketDataOptions) (int64, error) {
	args := contractArgs(contract)
	args["generic_tick_list"] = opts.GenericTicks.Value()
	args["snapshot"] = boolArg(opts.Snapshot)
	args["regulatory_snapshot"] = boolArg(opts.RegulatorySnapshot)
	args["mkt_data_options"] = opts.Options.Value()
	return c.request(ctx, schema.ReqMktData, args)
}

func (c *Client) CancelMktData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelMktData, id)
}

func (c *Client) ReqMarketDataType(ctx context.Context, marketDataType int) error {
	return c.call(ctx, schema.ReqMarketDataType, schema.Args{
		"market_data_type": protocol.Int(int64(marketDataType)),
	})
}

func (c *Client) ReqMktDepth(
	ctx context.Context,
	contract schema.Contract,
	numRows int,
	smartDepth bool,
	opts schema.Options,
) (int64, error) {
	args := contractArgs(contract)
	args["num_rows"] = protocol.Int(int64(numRows))
	args["is_smart_depth"] = boolArg(smartDepth)
	args["mkt_depth_options"] = opts.Value()
	return c.request(ctx, schema.ReqMktDepth, args)
}

func (c *Client) CancelMktDepth(ctx context.Context, id int64, smartDepth bool) error {
	return c.call(ctx, schema.CancelMktDepth, withReqID(schema.Args{
		"is_smart_depth": boolArg(smartDepth),
	}, id))
}

func (c *Client) ReqMktDepthExchanges(ctx context.Context) error {
	return c.call(ctx, schema.ReqMktDepthExchanges, nil)
}

func (c *Client) ReqSmartComponents(ctx context.Context, bboExchange string) (int64, error) {
	return c.request(ctx, schema.ReqSmartComponents, schema.Args{"bbo_exchange": protocol.String(bboExchange)})
}

func (c *Client) ReqMarketRule(ctx context.Context, marketRuleID int64) error {
	return c.call(ctx, schema.ReqMarketRule, schema.Args{"market_rule_id": protocol.Int(marketRuleID)})
}

// ReqRealTimeBars subscribes to five second bars.
func (c *Client) ReqRealTimeBars(
	ctx context.Context,
	contract schema.Contract,
	whatToShow string,
	useRTH bool,
	opts schema.Options,
) (int64, error) {
	args := contractArgs(contract)
	args["what_to_show"] = protocol.String(whatToShow)
	args["use_rth"] = boolArg(useRTH)
	args["real_time_bars_options"] = opts.Value()
	return c.request(ctx, schema.ReqRealTimeBars, args)
}

func (c *Client) CancelRealTimeBars(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelRealTimeBars, id)
}

func (c *Client) ReqTickByTickData(
	ctx context.Context,
	contract schema.Contract,
	tickType string,
	numberOfTicks int,
	ignoreSize bool,
) (int64, error) {
	args := contractArgs(contract)
	args["tick_type"] = protocol.String(tickType)
	args["number_of_ticks"] = protocol.Int(int64(numberOfTicks))
	args["ignore_size"] = boolArg(ignoreSize)
	return c.request(ctx, schema.ReqTickByTickData, args)
}

func (c *Client) CancelTickByTickData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelTickByTickData, id)
}

func (c *Client) CalculateImpliedVolatility(
	ctx context.Context,
	contract schema.Contract,
	optionPrice float64,
	underPrice float64,
	opts schema.Options,
) (int64, error) {
	args := contractArgs(contract)
	args["option_price"] = protocol.Float(optionPrice)
	args["under_price"] = protocol.Float(underPrice)
	args["options"] = opts.Value()
	return c.request(ctx, schema.ReqCalcImpliedVolat, args)
}

func (c *Client) CancelCalculateImpliedVolatility(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelCalcImpliedVolat, id)
}

func (c *Client) CalculateOptionPrice(
	ctx context.Context,
	contract schema.Contract,
	volatility float64,
	underPrice float64,
	opts schema.Options,
) (int64, error) {
	args := contractArgs(contract)
	args["volatility"] = protocol.Float(volatility)
	args["under_price"] = protocol.Float(underPrice)
	args["options"] = opts.Value()
	return c.request(ctx, schema.ReqCalcOptionPrice, args)
}

func (c *Client) CancelCalculateOptionPrice(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelCalcOptionPrice, id)
}

func (c *Client) ReqFundamentalData(
	ctx context.Context,
	contract schema.Contract,
	reportType string,
	opts schema.Options,
) (int64, error) {
	args := contractArgs(contract)
	args["report_type"] = protocol.String(reportType)
	args["fundamental_data_options"] = opts.Value()
	return c.request(ctx, schema.ReqFundamentalData, args)
}

func (c *Client) CancelFundamentalData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelFundamentalData, id)
}
