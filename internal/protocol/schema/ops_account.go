package schema

import "github.com/danmuck/ibctl/internal/protocol"

func accountOperations() []*Operation {
	return []*Operation{
		op(ReqAcctData, fs(
			Version(2),
			Flag("subscribe"),
			Str("acct_code").Account(),
		)),
		op(ReqExecutions,
			fs(Version(3), ReqID()),
			executionFilterFields(),
		),
		op(ReqManagedAccts, fs(Version(1))),
		op(RequestFA, fs(
			Version(1),
			Num("fa_data_type").Require().Validate(between(1, 3)),
		)),
		op(ReplaceFA, fs(
			Version(1),
			Num("fa_data_type").Require().Validate(between(1, 3)),
			Str("cxml").Require(),
			ReqID().Since("replace_fa_end"),
		)),

		op(ReqPositions, fs(Version(1))).since("positions"),
		op(CancelPositions, fs(Version(1))).since("positions"),

		op(ReqAccountSummary, fs(
			Version(1),
			ReqID(),
			Str("group_name").Require().Default(protocol.String("All")),
			Str("tags").Require().Normalize(canonicalTagList),
		)).since("account_summary"),
		op(CancelAccountSummary, fs(Version(1), ReqID().Require())).since("account_summary").cancel(),

		op(ReqPositionsMulti, fs(
			Version(1),
			ReqID(),
			Str("account").Account(),
			Str("model_code"),
		)).since("models_support"),
		op(CancelPositionsMulti, fs(Version(1), ReqID().Require())).since("models_support").cancel(),
		op(ReqAccountUpdatesMulti, fs(
			Version(1),
			ReqID(),
			Str("account").Account(),
			Str("model_code"),
			Flag("ledger_and_nlv"),
		)).since("models_support"),
		op(CancelAccountUpdatesMulti, fs(Version(1), ReqID().Require())).since("models_support").cancel(),

		op(ReqSoftDollarTiers, fs(ReqID())).since("soft_dollar_tier"),
		op(ReqFamilyCodes).since("req_family_codes"),

		op(ReqPnL, fs(
			ReqID(),
			Str("account").Require().Account(),
			Str("model_code"),
		)).since("pnl"),
		op(CancelPnL, fs(ReqID().Require())).since("pnl").cancel(),
		op(ReqPnLSingle, fs(
			ReqID(),
			Str("account").Require().Account(),
			Str("model_code"),
			Num("con_id").Require().Validate(positive),
		)).since("pnl"),
		op(CancelPnLSingle, fs(ReqID().Require())).since("pnl").cancel(),

		op(ReqUserInfo, fs(ReqID())).since("user_info"),
	}
}
