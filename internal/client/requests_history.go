package client

import (
	"context"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
)

type HistoricalDataRequest struct {
	EndDateTime string
	Duration    string
	BarSize     string
	WhatToShow  string
	UseRTH      bool
	// FormatDate is 1 for text dates, 2 for epoch seconds; 0 takes 1.
	FormatDate   int
	KeepUpToDate bool
	ChartOptions schema.Options
}

func (c *Client) ReqHistoricalData(ctx context.Context, contract schema.Contract, req HistoricalDataRequest) (int64, error) {
	args := contractArgs(contract)
	args["end_date_time"] = protocol.String(req.EndDateTime)
	args["duration_str"] = protocol.String(req.Duration)
	args["bar_size_setting"] = protocol.String(req.BarSize)
	args["what_to_show"] = protocol.String(req.WhatToShow)
	args["use_rth"] = boolArg(req.UseRTH)
	args["keep_up_to_date"] = boolArg(req.KeepUpToDate)
	args["chart_options"] = req.ChartOptions.Value()
	if req.FormatDate != 0 {
		args["format_date"] = protocol.Int(int64(req.FormatDate))
	}
	return c.request(ctx, schema.ReqHistoricalData, args)
}

func (c *Client) CancelHistoricalData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelHistoricalData, id)
}

func (c *Client) ReqHeadTimestamp(
	ctx context.Context,
	contract schema.Contract,
	whatToShow string,
	useRTH bool,
	formatDate int,
) (int64, error) {
	args := contractArgs(contract)
	args["what_to_show"] = protocol.String(whatToShow)
	args["use_rth"] = boolArg(useRTH)
	if formatDate != 0 {
		args["format_date"] = protocol.Int(int64(formatDate))
	}
	return c.request(ctx, schema.ReqHeadTimestamp, args)
}

func (c *Client) CancelHeadTimestamp(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelHeadTimestamp, id)
}

func (c *Client) ReqHistogramData(ctx context.Context, contract schema.Contract, useRTH bool, timePeriod string) (int64, error) {
	args := contractArgs(contract)
	args["use_rth"] = boolArg(useRTH)
	args["time_period"] = protocol.String(timePeriod)
	return c.request(ctx, schema.ReqHistogramData, args)
}

func (c *Client) CancelHistogramData(ctx context.Context, id int64) error {
	return c.cancel(ctx, schema.CancelHistogramData, id)
}

// HistoricalTicksRequest sets exactly one of StartDateTime and EndDateTime.
type HistoricalTicksRequest struct {
	StartDateTime string
	EndDateTime   string
	NumberOfTicks int
	WhatToShow    string
	UseRTH        bool
	IgnoreSize    bool
	MiscOptions   schema.Options
}

func (c *Client) ReqHistoricalTicks(ctx context.Context, contract schema.Contract, req HistoricalTicksRequest) (int64, error) {
	args := contractArgs(contract)
	args["start_date_time"] = protocol.String(req.StartDateTime)
	args["end_date_time"] = protocol.String(req.EndDateTime)
	args["number_of_ticks"] = protocol.Int(int64(req.NumberOfTicks))
	args["what_to_show"] = protocol.String(req.WhatToShow)
	args["use_rth"] = boolArg(req.UseRTH)
	args["ignore_size"] = boolArg(req.IgnoreSize)
	args["misc_options"] = req.MiscOptions.Value()
	return c.request(ctx, schema.ReqHistoricalTicks, args)
}
