package client

import (
	"context"

	"github.com/danmuck/ibctl/internal/protocol"
	"github.com/danmuck/ibctl/internal/protocol/schema"
)

func orderArgs(contract schema.Contract, order schema.Order) schema.Args {
	return order.AppendTo(contractArgs(contract), contract.IsCombo())
}

// PlaceOrder submits a new order under the next session order id and
// returns that id. The gateway must have sent its next valid id first.
func (c *Client) PlaceOrder(ctx context.Context, contract schema.Contract, order schema.Order) (int64, error) {
	return c.request(ctx, schema.PlaceOrder, orderArgs(contract, order))
}

// ModifyOrder resends an order under an id the caller already holds.
func (c *Client) ModifyOrder(ctx context.Context, orderID int64, contract schema.Contract, order schema.Order) error {
	args := orderArgs(contract, order)
	args["order_id"] = protocol.Int(orderID)
	return c.call(ctx, schema.PlaceOrder, args)
}

// CancelOrder cancels orderID. manualCancelTime may be empty.
func (c *Client) CancelOrder(ctx context.Context, orderID int64, manualCancelTime string) error {
	return c.call(ctx, schema.CancelOrder, schema.Args{
		"order_id":                 protocol.Int(orderID),
		"manual_order_cancel_time": protocol.String(manualCancelTime),
	})
}

func (c *Client) ReqOpenOrders(ctx context.Context) error {
	return c.call(ctx, schema.ReqOpenOrders, nil)
}

func (c *Client) ReqAutoOpenOrders(ctx context.Context, autoBind bool) error {
	return c.call(ctx, schema.ReqAutoOpenOrders, schema.Args{"auto_bind": boolArg(autoBind)})
}

func (c *Client) ReqAllOpenOrders(ctx context.Context) error {
	return c.call(ctx, schema.ReqAllOpenOrders, nil)
}

// ReqIDs asks the gateway for a fresh next valid order id.
func (c *Client) ReqIDs(ctx context.Context, numIDs int) error {
	args := schema.Args{}
	if numIDs > 0 {
		args["num_ids"] = protocol.Int(int64(numIDs))
	}
	return c.call(ctx, schema.ReqIDs, args)
}

func (c *Client) ReqGlobalCancel(ctx context.Context) error {
	return c.call(ctx, schema.ReqGlobalCancel, nil)
}

func (c *Client) ReqCompletedOrders(ctx context.Context, apiOnly bool) error {
	return c.call(ctx, schema.ReqCompletedOrders, schema.Args{"api_only": boolArg(apiOnly)})
}

// ExerciseRequest carries the exercise or lapse instruction for an option.
type ExerciseRequest struct {
	// Action is 1 to exercise, 2 to lapse.
	Action               int
	Quantity             int64
	Account              string
	Override             bool
	ManualOrderTime      string
	CustomerAccount      string
	ProfessionalCustomer bool
}

func (c *Client) ExerciseOptions(ctx context.Context, contract schema.Contract, req ExerciseRequest) (int64, error) {
	override := int64(0)
	if req.Override {
		override = 1
	}
	args := contractArgs(contract)
	args["exercise_action"] = protocol.Int(int64(req.Action))
	args["exercise_quantity"] = protocol.Int(req.Quantity)
	args["account"] = protocol.String(req.Account)
	args["override"] = protocol.Int(override)
	args["manual_order_time"] = protocol.String(req.ManualOrderTime)
	args["customer_account"] = protocol.String(req.CustomerAccount)
	args["professional_customer"] = boolArg(req.ProfessionalCustomer)
	return c.request(ctx, schema.ExerciseOptions, args)
}
