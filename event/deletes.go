package event

import (
	"log"

	"github.com/etnz/stockbot"
	"github.com/etnz/stockbot/ledger"
)

// deleteInstrumentLot cascades the deletion of a stock-book lot: its derived
// postings in the financial and base books are trashed and the account is
// flagged for rebuild when results become stale.
func (d *Dispatcher) deleteInstrumentLot(stockBook *ledger.Book, payload *TransactionPayload) (*Result, error) {
	lot := stockBook.Transaction(payload.ID)
	if lot == nil {
		return falseResult(), nil
	}
	account := stockAccountLeg(lot)
	if account == nil {
		return falseResult(), nil
	}

	stockExcCode := stockbot.NewStockAccount(account).ExchangeCode()
	financialBook := stockbot.GetFinancialBook(stockBook, stockExcCode)

	stockbot.FlagStockAccountForRebuildIfNeeded(lot)
	cascadeDelete(financialBook, stockBook, payload.ID)

	return &Result{Result: "DELETED: " + record(stockBook, lot)}, nil
}

// stockAccountLeg returns the permanent leg of a lot transaction, or nil.
func stockAccountLeg(tx *ledger.Transaction) *ledger.Account {
	if tx.CreditAccount() != nil && tx.CreditAccount().Permanent() {
		return tx.CreditAccount()
	}
	if tx.DebitAccount() != nil && tx.DebitAccount().Permanent() {
		return tx.DebitAccount()
	}
	return nil
}

// deleteFinancialOrder trashes the order children (fees, interest,
// instrument) of a deleted financial posting and the stock mirrors hanging
// off them.
func (d *Dispatcher) deleteFinancialOrder(book *ledger.Book, payload *TransactionPayload) (*Result, error) {
	var records []string

	for _, prop := range []stockbot.Prop{stockbot.FeesProp, stockbot.InterestProp} {
		if tx := trashByRemoteID(book, string(prop)+"_"+payload.ID); tx != nil {
			records = append(records, "DELETED: "+record(book, tx))
		}
	}
	if instrumentTx := trashByRemoteID(book, string(stockbot.InstrumentProp)+"_"+payload.ID); instrumentTx != nil {
		records = append(records, "DELETED: "+record(book, instrumentTx))
		if stockTx := d.deleteOnStockBook(book, instrumentTx.ID()); stockTx != nil {
			records = append(records, "DELETED: "+record(stockTx.Book(), stockTx))
		}
	}
	// The payload may itself be an instrument posting mirrored on the stock
	// book.
	if stockTx := d.deleteOnStockBook(book, payload.ID); stockTx != nil {
		records = append(records, "DELETED: "+record(stockTx.Book(), stockTx))
	}

	if len(records) == 0 {
		return falseResult(), nil
	}
	return &Result{Result: records}, nil
}

// deleteOnStockBook trashes the stock mirror carrying the remote id and
// cascades its derived postings.
func (d *Dispatcher) deleteOnStockBook(financialBook *ledger.Book, remoteID string) *ledger.Transaction {
	stockBook := stockbot.GetStockBook(financialBook)
	if stockBook == nil {
		return nil
	}
	stockTx := trashByRemoteID(stockBook, remoteID)
	if stockTx == nil {
		return nil
	}
	stockbot.FlagStockAccountForRebuildIfNeeded(stockTx)
	cascadeDelete(financialBook, stockBook, stockTx.ID())
	return stockTx
}

// cascadeDelete trashes every posting derived from the transaction id: the
// realized postings, mark-to-market and FX mirrors, plus the historical
// variants when the book maintains both models.
func cascadeDelete(financialBook, stockBook *ledger.Book, id string) {
	if financialBook == nil {
		return
	}
	baseBook := stockbot.GetBaseBook(financialBook)

	trashByRemoteID(financialBook, id)
	trashByRemoteID(financialBook, "mtm_"+id)
	if baseBook != nil {
		trashByRemoteID(baseBook, "fx_"+id)
	}

	if stockBook != nil && stockbot.GetCalculationModel(stockBook) == stockbot.ModelBoth {
		trashByRemoteID(financialBook, "hist_"+id)
		trashByRemoteID(financialBook, "mtm_hist_"+id)
		if baseBook != nil {
			trashByRemoteID(baseBook, "fx_hist_"+id)
		}
	}
}

// trashByRemoteID unchecks and trashes the first transaction carrying the
// remote id, returning it, or nil.
func trashByRemoteID(book *ledger.Book, remoteID string) *ledger.Transaction {
	txs, err := book.Transactions("remoteId:" + remoteID)
	if err != nil {
		log.Println(err)
		return nil
	}
	if len(txs) == 0 {
		return nil
	}
	tx := txs[0]
	if tx.Checked() {
		tx.Uncheck()
	}
	tx.Trash()
	return tx
}
