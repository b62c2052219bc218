package server

import (
	"encoding/json"
	"fmt"

	"github.com/trailhunt-ai/trailhunt/engine/internal/eval"
	"github.com/trailhunt-ai/trailhunt/engine/internal/fixture"
	"github.com/trailhunt-ai/trailhunt/engine/internal/store"
	"github.com/trailhunt-ai/trailhunt/engine/internal/table"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

const (
	engineVersion   = "0.1.0"
	protocolVersion = 1
)

var capabilities = []string{"evaluate_batch", "query_scoring"}

// RegisterBuiltinHandlers registers the built-in JSON-RPC handlers on s,
// evaluating against the given dataset store.
func RegisterBuiltinHandlers(s *Server, st *store.Store) {
	evaluator := eval.New(st, s.logger)

	s.RegisterHandler("initialize", handleInitialize(st))
	s.RegisterHandler("evaluate_batch", handleEvaluateBatch(evaluator))
	s.RegisterHandler("shutdown", handleShutdown)
}

func handleInitialize(st *store.Store) Handler {
	return func(session *Session, params json.RawMessage) (any, *types.RPCError) {
		if session.State() != StateUninitialized {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				"initialize called on already-initialized session",
				types.ErrTypeSessionError,
				false,
				"initialize may only be called once per session",
			)
		}

		var p types.InitializeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				"invalid initialize params",
				types.ErrTypeSessionError,
				false,
				err.Error(),
			)
		}

		if p.ProtocolVersion != protocolVersion {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				fmt.Sprintf("protocol version %d not supported; engine supports version %d", p.ProtocolVersion, protocolVersion),
				types.ErrTypeSessionError,
				false,
				"Upgrade the engine binary or downgrade the client protocol_version",
			)
		}

		session.SetState(StateInitialized)

		return &types.InitializeResult{
			EngineVersion:   engineVersion,
			ProtocolVersion: protocolVersion,
			Capabilities:    capabilities,
			DatasetRecords:  st.Records(),
		}, nil
	}
}

func handleEvaluateBatch(evaluator *eval.Evaluator) Handler {
	return func(session *Session, params json.RawMessage) (any, *types.RPCError) {
		if session.State() != StateInitialized {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				"evaluate_batch called before initialize",
				types.ErrTypeSessionError,
				false,
				"call initialize first to establish a session before sending evaluate_batch requests",
			)
		}

		var p types.EvaluateBatchParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, types.NewRPCError(
				types.ErrInvalidParams,
				fmt.Sprintf("invalid evaluate_batch params: %v", err),
				types.ErrTypeInvalidParams,
				false,
				"Check the request format matches the protocol spec.",
			)
		}

		outcomes := map[string]*table.Table{}
		if len(p.Outcomes) > 0 {
			parsed, err := fixture.ParseOutcomes(p.Outcomes)
			if err != nil {
				return nil, types.NewRPCError(
					types.ErrLoadError,
					fmt.Sprintf("invalid expected outcomes: %v", err),
					types.ErrTypeLoadError,
					false,
					"Outcomes must be an array of single-key {hypothesis_id: [rows]} objects.",
				)
			}
			outcomes = parsed
		}

		report := evaluator.EvaluateBatch(p.Queries, outcomes)
		if p.Iteration > 0 {
			report.Iteration = p.Iteration
		}

		session.IncrementHypotheses(len(report.HypothesisResults))

		return &types.EvaluateBatchResult{Report: *report}, nil
	}
}

func handleShutdown(session *Session, _ json.RawMessage) (any, *types.RPCError) {
	if session.State() != StateInitialized {
		return nil, types.NewRPCError(
			types.ErrSessionError,
			"shutdown called on uninitialized or already-shutting-down session",
			types.ErrTypeSessionError,
			false,
			"call initialize before shutdown",
		)
	}

	session.SetState(StateShuttingDown)

	session.mu.Lock()
	session.sessionsCompleted++
	completed := session.sessionsCompleted
	evaluated := session.hypothesesEvaluated
	session.mu.Unlock()

	return &types.ShutdownResult{
		SessionsCompleted:   int(completed),
		HypothesesEvaluated: int(evaluated),
	}, nil
}
