package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"index-dashboard/internal/amount"
	"index-dashboard/internal/chain"
	"index-dashboard/internal/domain"
	"index-dashboard/internal/storage"
)

// AmountResponse is a smallest-unit amount with its display form.
type AmountResponse struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}

func (s *Server) handleEthBalance(w http.ResponseWriter, r *http.Request) {
	address, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	s.serveAmount(w, r, "eth:"+address.Hex(), func(ctx context.Context) (*big.Int, error) {
		return s.chain.EthBalance(ctx, address)
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	token, ok := pathAddress(w, r, "token")
	if !ok {
		return
	}
	address, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	s.serveAmount(w, r, "balance:"+token.Hex()+":"+address.Hex(), func(ctx context.Context) (*big.Int, error) {
		return s.chain.Balance(ctx, token, address)
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	token, ok := pathAddress(w, r, "token")
	if !ok {
		return
	}
	owner, ok := pathAddress(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := pathAddress(w, r, "spender")
	if !ok {
		return
	}
	key := "allowance:" + token.Hex() + ":" + owner.Hex() + ":" + spender.Hex()
	s.serveAmount(w, r, key, func(ctx context.Context) (*big.Int, error) {
		return s.chain.Allowance(ctx, owner, spender, token)
	})
}

// serveAmount answers from cache when possible. Failed reads are not cached.
func (s *Server) serveAmount(w http.ResponseWriter, r *http.Request, key string, read func(context.Context) (*big.Int, error)) {
	if s.cache != nil {
		if v, found := s.cache.Get(key); found {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	v, err := read(r.Context())
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("chain read failed")
		writeError(w, http.StatusBadGateway, "chain read failed")
		return
	}

	resp := AmountResponse{
		Raw:     v.String(),
		Display: amount.FullDisplayBalance(v, amount.DefaultDecimals),
	}
	if s.cache != nil {
		s.cache.Set(key, resp, s.ttl)
	}
	writeJSON(w, http.StatusOK, resp)
}

// TransactionResponse describes a transaction hash and what is known of it.
type TransactionResponse struct {
	Hash   string                    `json:"hash"`
	Link   string                    `json:"link"`
	Record *domain.TransactionRecord `json:"record,omitempty"`
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	hash, err := chain.ParseHash(r.PathValue("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := TransactionResponse{Hash: hash.Hex(), Link: s.chain.EtherscanLink(hash.Hex())}
	if s.txs != nil {
		record, err := s.txs.GetByHash(r.Context(), hash.Hex())
		switch {
		case err == nil:
			resp.Record = record
		case !errors.Is(err, storage.ErrNotFound):
			s.logger.Error().Err(err).Str("tx_hash", hash.Hex()).Msg("get transaction record")
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "address query parameter must be a hex address")
		return
	}
	if s.txs == nil {
		writeJSON(w, http.StatusOK, []TransactionResponse{})
		return
	}

	records, err := s.txs.ListByAddress(r.Context(), common.HexToAddress(raw).Hex())
	if err != nil {
		s.logger.Error().Err(err).Msg("list transactions")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	out := make([]TransactionResponse, 0, len(records))
	for _, rec := range records {
		resp := TransactionResponse{Hash: rec.TxHash, Record: rec}
		if rec.TxHash != "" {
			resp.Link = s.chain.EtherscanLink(rec.TxHash)
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := strings.TrimSpace(r.PathValue(name))
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid "+name+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
