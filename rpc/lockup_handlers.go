package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"lockvault/native/lockup"
)

type stakeParams struct {
	Caller    string `json:"caller"`
	OnBehalf  string `json:"onBehalf,omitempty"`
	Amount    string `json:"amount"`
	TierIndex int    `json:"tierIndex"`
}

type accountParams struct {
	Caller string `json:"caller"`
}

type claimParams struct {
	Caller string   `json:"caller"`
	Tokens []string `json:"tokens"`
}

type bountyParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
	Execute bool   `json:"execute"`
}

type compoundParams struct {
	Caller   string `json:"caller"`
	OnBehalf string `json:"onBehalf"`
}

type trackParams struct {
	Tokens []string `json:"tokens"`
}

type notifyParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type lockIndexParams struct {
	Caller string `json:"caller"`
	Index  int    `json:"index"`
}

type autoRelockParams struct {
	Caller  string `json:"caller"`
	Enabled bool   `json:"enabled"`
}

type tokenParams struct {
	Token string `json:"token"`
}

type lockResult struct {
	Amount     string `json:"amount"`
	UnlockTime uint64 `json:"unlockTime"`
	Multiplier uint64 `json:"multiplier"`
	Duration   uint64 `json:"duration"`
}

type balancesResult struct {
	Total                string `json:"total"`
	Unlocked             string `json:"unlocked"`
	Locked               string `json:"locked"`
	LockedWithMultiplier string `json:"lockedWithMultiplier"`
}

type rewardResult struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type bountyResult struct {
	Amount   string `json:"amount"`
	Relocked bool   `json:"relocked"`
}

type supplyResult struct {
	LockedSupply               string `json:"lockedSupply"`
	LockedSupplyWithMultiplier string `json:"lockedSupplyWithMultiplier"`
}

type rewardDataResult struct {
	Token                string `json:"token"`
	PeriodFinish         uint64 `json:"periodFinish"`
	LastUpdateTime       uint64 `json:"lastUpdateTime"`
	RewardPerSecond      string `json:"rewardPerSecond"`
	RewardPerTokenStored string `json:"rewardPerTokenStored"`
	Balance              string `json:"balance"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid %s address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseTokens(values []string) ([]common.Address, error) {
	tokens := make([]common.Address, 0, len(values))
	for _, value := range values {
		token, err := parseAddress("token", value)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func formatRewards(rewards []lockup.ClaimableReward) []rewardResult {
	out := make([]rewardResult, len(rewards))
	for i, reward := range rewards {
		out[i] = rewardResult{Token: reward.Token.Hex(), Amount: reward.Amount.String()}
	}
	return out
}

// refreshStreamRates updates the per-token rate gauges after a stream
// mutation. Gauge staleness is tolerable, so lookup failures are skipped.
func (s *Server) refreshStreamRates(tokens []common.Address) {
	for _, token := range tokens {
		data, err := s.engine.GetRewardData(token)
		if err != nil {
			continue
		}
		s.metrics.SetStreamRate(token.Hex(), data.RewardPerSecond)
	}
}

func (s *Server) handleStake(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	onBehalf := caller
	if params.OnBehalf != "" {
		if onBehalf, err = parseAddress("onBehalf", params.OnBehalf); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	err = s.engine.Stake(caller, onBehalf, amount, params.TierIndex)
	s.mu.Unlock()
	s.observe("stake", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleClaimRewards(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokens, err := parseTokens(params.Tokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	rewards, err := s.engine.ClaimRewards(caller, tokens)
	s.mu.Unlock()
	s.observe("claimRewards", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	for _, reward := range rewards {
		s.metrics.ObserveRewardPaid(reward.Token.Hex(), reward.Amount)
	}
	writeResult(w, req.ID, formatRewards(rewards))
}

func (s *Server) handleClaimAllRewards(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	rewards, err := s.engine.ClaimAllRewards(caller)
	s.mu.Unlock()
	s.observe("claimAllRewards", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRewards(rewards))
}

func (s *Server) handleWithdrawExpiredLocks(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	amount, err := s.engine.WithdrawExpiredLocks(caller)
	s.mu.Unlock()
	s.observe("withdrawExpiredLocks", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

func (s *Server) handleRelockExpiredLocks(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	amount, err := s.engine.RelockExpiredLocks(caller)
	s.mu.Unlock()
	s.observe("relockExpiredLocks", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

func (s *Server) handleClaimBounty(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params bountyParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	result, err := s.engine.ClaimBounty(caller, account, params.Execute)
	s.mu.Unlock()
	if params.Execute {
		s.observe("claimBounty", err)
	}
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, bountyResult{Amount: result.Amount.String(), Relocked: result.Relocked})
}

func (s *Server) handleClaimAndCompound(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params compoundParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	onBehalf, err := parseAddress("onBehalf", params.OnBehalf)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	rewards, err := s.engine.ClaimAndCompound(caller, onBehalf)
	s.mu.Unlock()
	s.observe("claimAndCompound", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRewards(rewards))
}

func (s *Server) handleTrackUnseenRewards(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params trackParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	tokens, err := parseTokens(params.Tokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	err = s.engine.TrackUnseenRewards(tokens)
	s.mu.Unlock()
	s.observe("trackUnseenRewards", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.refreshStreamRates(tokens)
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleNotifyReward(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params notifyParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := parseAddress("token", params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	err = s.engine.NotifyReward(caller, token, amount)
	s.mu.Unlock()
	s.observe("notifyReward", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveRevenueStreamed(token.Hex(), amount)
	s.refreshStreamRates([]common.Address{token})
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleSetDefaultLockIndex(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params lockIndexParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	err = s.engine.SetDefaultLockIndex(caller, params.Index)
	s.mu.Unlock()
	s.observe("setDefaultLockIndex", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleSetAutoRelock(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params autoRelockParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	s.mu.Lock()
	err = s.engine.SetAutoRelock(caller, params.Enabled)
	s.mu.Unlock()
	s.observe("setAutoRelock", err)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGetUserLocks(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	locks, err := s.engine.GetUserLocks(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	out := make([]lockResult, len(locks))
	for i, lock := range locks {
		out[i] = lockResult{
			Amount:     lock.Amount.String(),
			UnlockTime: lock.UnlockTime,
			Multiplier: lock.Multiplier,
			Duration:   lock.Duration,
		}
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetUserBalances(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balances, err := s.engine.GetUserBalances(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, balancesResult{
		Total:                balances.Total.String(),
		Unlocked:             balances.Unlocked.String(),
		Locked:               balances.Locked.String(),
		LockedWithMultiplier: balances.LockedWithMultiplier.String(),
	})
}

func (s *Server) handleGetClaimableRewards(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rewards, err := s.engine.GetUserClaimableRewards(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatRewards(rewards))
}

func (s *Server) handleGetLockedSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	locked, err := s.engine.GetLockedSupply()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	weighted, err := s.engine.GetLockedSupplyWithMultiplier()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, supplyResult{
		LockedSupply:               locked.String(),
		LockedSupplyWithMultiplier: weighted.String(),
	})
}

func (s *Server) handleGetRewardData(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	token, err := parseAddress("token", params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	data, err := s.engine.GetRewardData(token)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, rewardDataResult{
		Token:                data.Token.Hex(),
		PeriodFinish:         data.PeriodFinish,
		LastUpdateTime:       data.LastUpdateTime,
		RewardPerSecond:      data.RewardPerSecond.String(),
		RewardPerTokenStored: data.RewardPerTokenStored.String(),
		Balance:              data.Balance.String(),
	})
}

func (s *Server) handleGetRewardTokens(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	tokens, err := s.engine.GetRewardTokens()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	out := make([]string, len(tokens))
	for i, token := range tokens {
		out[i] = token.Hex()
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetDefaultLockIndex(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	account, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	index, err := s.engine.GetDefaultLockIndex(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]int{"index": index})
}
