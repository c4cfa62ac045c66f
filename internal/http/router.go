package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Chat          *ChatHandler
	Agenda        *AgendaHandler
	Confirmations *ConfirmationHandler
	Photos        *PhotoHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Chat != nil {
		mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Chat.Handle(w, r)
		})
	}

	if cfg.Agenda != nil {
		mux.HandleFunc("/api/agenda", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Agenda.Get(w, r)
		})
	}

	if cfg.Confirmations != nil {
		mux.HandleFunc("/api/confirmar", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Confirmations.Create(w, r)
		})
	}

	if cfg.Photos != nil {
		mux.HandleFunc("/api/medicamentos/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/medicamentos/")
			id, ok := strings.CutSuffix(rest, "/foto")
			if !ok || id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			ctx := ContextWithMedicationID(r.Context(), id)
			cfg.Photos.Attach(w, r.WithContext(ctx))
		})
		mux.HandleFunc("/api/imagens/", func(w http.ResponseWriter, r *http.Request) {
			ref := strings.TrimPrefix(r.URL.Path, "/api/imagens/")
			if ref == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			ctx := ContextWithPhotoRef(r.Context(), ref)
			cfg.Photos.Serve(w, r.WithContext(ctx))
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
