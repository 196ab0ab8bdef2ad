package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/store"
	"github.com/xraph/fundme/types"
	"github.com/xraph/fundme/wallet"
)

// callerHeader carries the identity of the account making a request.
const callerHeader = "X-Caller"

const requestIDHeader = "X-Request-ID"

// server exposes one ledger over HTTP. Contributions are paid from the
// caller's account in book; withdrawals credit the owner's account there.
type server struct {
	ledger  *fundme.Ledger
	book    *wallet.Book
	journal store.Store
	logger  *slog.Logger
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/owner", s.owner).Methods(http.MethodGet)
	r.HandleFunc("/fund", s.fund).Methods(http.MethodPost)
	r.HandleFunc("/withdraw", s.withdraw(false)).Methods(http.MethodPost)
	r.HandleFunc("/withdraw/cheaper", s.withdraw(true)).Methods(http.MethodPost)
	r.HandleFunc("/balance/{address}", s.balance).Methods(http.MethodGet)
	r.HandleFunc("/wallet/{address}", s.walletBalance).Methods(http.MethodGet)
	r.HandleFunc("/funders", s.funders).Methods(http.MethodGet)
	r.HandleFunc("/funders/{index}", s.funderAt).Methods(http.MethodGet)
	r.HandleFunc("/contributions", s.contributions).Methods(http.MethodGet)

	return r
}

func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, reqID)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed", time.Since(start),
		)
	})
}

type fundRequest struct {
	// Amount in whole ether, as a decimal string.
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Address types.Address `json:"address"`
	Wei     types.Amount  `json:"wei"`
	Ether   string        `json:"ether"`
}

func newBalance(addr types.Address, amount types.Amount) balanceResponse {
	return balanceResponse{Address: addr, Wei: amount, Ether: amount.FormatEther()}
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	if err := s.ledger.Audit(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"funders":     s.ledger.FunderCount(),
		"held_wei":    s.ledger.Held(),
		"withdrawing": s.ledger.Withdrawing(),
	})
}

func (s *server) owner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ledger_id":   s.ledger.ID(),
		"owner":       s.ledger.Owner(),
		"price_feed":  s.ledger.PriceFeed().Address(),
		"minimum_usd": s.ledger.MinimumUSD().FormatEther(),
	})
}

func (s *server) fund(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fundme.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	amount, err := types.ParseEther(req.Amount)
	if err != nil {
		s.writeError(w, fundme.ValidationError{Field: "amount", Message: err.Error()})
		return
	}

	err = s.book.Spend(caller, amount, func() error {
		return s.ledger.Contribute(r.Context(), caller, amount)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newBalance(caller, s.ledger.BalanceOf(caller)))
}

func (s *server) withdraw(cheaper bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.caller(w, r)
		if !ok {
			return
		}

		withdraw := s.ledger.Withdraw
		if cheaper {
			withdraw = s.ledger.CheaperWithdraw
		}
		if err := withdraw(r.Context(), caller); err != nil {
			s.writeError(w, err)
			return
		}

		owner := s.ledger.Owner()
		writeJSON(w, http.StatusOK, newBalance(owner, s.book.BalanceOf(owner)))
	}
}

func (s *server) balance(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newBalance(addr, s.ledger.BalanceOf(addr)))
}

func (s *server) walletBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.address(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newBalance(addr, s.book.BalanceOf(addr)))
}

func (s *server) funders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"funders": s.ledger.Funders(),
	})
}

func (s *server) funderAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.writeError(w, fundme.ValidationError{Field: "index", Message: err.Error()})
		return
	}
	addr, err := s.ledger.FunderAt(index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "funder": addr})
}

func (s *server) contributions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts receipt.ListOpts
	if v := q.Get("contributor"); v != "" {
		addr, err := types.ParseAddress(v)
		if err != nil {
			s.writeError(w, fundme.ValidationError{Field: "contributor", Message: err.Error()})
			return
		}
		opts.Contributor = addr
	}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))   //nolint:errcheck // zero means no limit
	opts.Offset, _ = strconv.Atoi(q.Get("offset")) //nolint:errcheck // zero means from the start

	list, err := s.journal.ListContributions(r.Context(), s.ledger.ID(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": list})
}

func (s *server) caller(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	addr, err := types.ParseAddress(r.Header.Get(callerHeader))
	if err != nil {
		s.writeError(w, fundme.ValidationError{Field: callerHeader, Message: err.Error()})
		return types.ZeroAddress, false
	}
	return addr, true
}

func (s *server) address(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	addr, err := types.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		s.writeError(w, fundme.ValidationError{Field: "address", Message: err.Error()})
		return types.ZeroAddress, false
	}
	return addr, true
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fundme.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, fundme.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, fundme.ErrIndexOutOfRange), errors.Is(err, fundme.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fundme.ErrWithdrawalInProgress):
		return http.StatusConflict
	case errors.Is(err, fundme.ErrInsufficientContribution), errors.Is(err, fundme.ErrConversionOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fundme.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, fundme.ErrOracleUnavailable), errors.Is(err, fundme.ErrOraclePriceInvalid):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
