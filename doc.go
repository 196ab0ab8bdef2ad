// Package fundme provides a custodial contribution ledger for Go applications.
//
// Anyone may contribute native value to a Ledger. Each contribution is priced
// through a PriceFeed and must be worth at least a minimum in USD (50 by
// default). Only the owner can withdraw, and a withdrawal pays out the whole
// pool and clears every contributor record in one step.
//
// # Quick Start
//
//	feed := oracle.NewDefaultMockAggregator()  // 2000 USD, 8 decimals
//	book := wallet.NewBook()                    // external balances
//
//	l, err := fundme.New(ownerAddr, feed,
//	    fundme.WithPayee(book),
//	    fundme.WithStore(memory.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	amount, _ := fundme.ParseEther("0.1")
//	if err := l.Contribute(ctx, funderAddr, amount); err != nil {
//	    // fundme.ErrInsufficientContribution, fundme.ErrOracleUnavailable, ...
//	}
//
//	err = l.Withdraw(ctx, ownerAddr)
//
// # Pricing
//
// Contribution value is amount * price, with the feed answer normalised to
// 18 decimals and the product divided by 10^18. A feed that errors, reports a
// non-positive answer, or (with WithMaxPriceAge) a stale round rejects the
// contribution. Nothing is committed on rejection.
//
// # Withdrawals
//
// Withdraw and CheaperWithdraw are interchangeable. Both clear the pool before
// paying the owner through the configured Payee, release the ledger lock for
// the duration of the payout, and refuse a nested withdrawal. A failed payout
// restores the pool.
//
// # Journal
//
// A store.Store records a receipt for every committed contribution and
// withdrawal. Backends are provided for memory, PostgreSQL, SQLite, MongoDB,
// Redis and LevelDB. The journal is informational; ledger state lives only in
// memory.
//
// # TypeID
//
// Ledgers and receipts use TypeIDs:
//
//	fund_01h2xcejqtf2nbrexx3vqjhp41  // Ledger
//	ctb_01h2xcejqtf2nbrexx3vqjhp41   // Contribution receipt
//	wdr_01h455vb4pex5vsknk084sn02q   // Withdrawal receipt
//	evt_01h455vb4pex5vsknk084sn02q   // Published event
//
// # Plugins
//
// Plugins observe accepted and rejected contributions and completed and
// failed withdrawals. The audit_hook, observability and events/kafka
// packages ship ready-made plugins; register them with WithPlugin.
package fundme
