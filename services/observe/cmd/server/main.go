package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/workingdoge/premath-sub002/pkg/db"
	"github.com/workingdoge/premath-sub002/pkg/gate"
	"github.com/workingdoge/premath-sub002/pkg/httpx"
	"github.com/workingdoge/premath-sub002/pkg/requiredwitness"
	"github.com/workingdoge/premath-sub002/services/observe/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool := db.MustConnect(ctx)
	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Fatal("schema", zap.Error(err))
	}

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8084"
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/observe", func(api chi.Router) {

		// Persist a gate-result artifact. The chain hash is recomputed
		// server-side from the payload; a client-claimed hash that does not
		// match is rejected rather than stored under the wrong key.
		api.Post("/results", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				WitnessHash string          `json:"witnessHash,omitempty"`
				Payload     json.RawMessage `json:"payload"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			if len(req.Payload) == 0 {
				httpx.WriteError(w, 400, "MISSING_PAYLOAD", "payload is required", nil)
				return
			}
			hash, err := requiredwitness.HashGateResultBytes(req.Payload)
			if err != nil {
				httpx.WriteError(w, 400, "BAD_PAYLOAD", err.Error(), nil)
				return
			}
			if req.WitnessHash != "" && req.WitnessHash != hash {
				httpx.WriteError(w, 409, "HASH_MISMATCH", "claimed witnessHash does not match payload", map[string]any{
					"claimed": req.WitnessHash, "computed": hash,
				})
				return
			}
			var res gate.GateResult
			if err := json.Unmarshal(req.Payload, &res); err != nil {
				httpx.WriteError(w, 400, "BAD_PAYLOAD", err.Error(), nil)
				return
			}
			if res.Schema != gate.Schema {
				httpx.WriteError(w, 400, "BAD_SCHEMA", "unsupported gate result schema", map[string]any{"schema": res.Schema})
				return
			}
			if err := st.PutResult(r.Context(), hash, res.Profile, res.Result, req.Payload); err != nil {
				logger.Error("put result", zap.Error(err), zap.String("witnessHash", hash))
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			logger.Info("stored gate result",
				zap.String("witnessHash", hash),
				zap.String("profile", res.Profile),
				zap.String("result", res.Result))
			httpx.WriteJSON(w, 201, map[string]any{"requestId": httpx.NewRequestID(), "witnessHash": hash})
		})

		api.Get("/results/{witness_hash}", func(w http.ResponseWriter, r *http.Request) {
			hash := chi.URLParam(r, "witness_hash")
			res, err := st.GetResult(r.Context(), hash)
			if err != nil {
				if store.IsNotFound(err) {
					httpx.WriteError(w, 404, "NOT_FOUND", "no artifact for witness hash", nil)
					return
				}
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"requestId": httpx.NewRequestID(), "artifact": res})
		})

		api.Get("/results", func(w http.ResponseWriter, r *http.Request) {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			results, err := st.ListRecent(r.Context(), limit)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"requestId": httpx.NewRequestID(), "artifacts": results})
		})
	})

	logger.Info("observe service listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
