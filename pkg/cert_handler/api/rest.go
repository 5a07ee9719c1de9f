package api

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/renderwell/farmpki/pkg/cert_handler/dispatcher"
	"github.com/renderwell/farmpki/pkg/cert_handler/resource"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage/memory"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage/postgres"
	"github.com/renderwell/farmpki/pkg/util"
)

// maxEventSize bounds the accepted event payload. Lifecycle event envelopes
// are small; anything bigger is malformed or hostile.
const maxEventSize = 1 << 20

type RestServerConfig struct {
	Database               util.PostgresDatabaseConfig `yaml:"database"`
	ServerAddress          string                      `yaml:"server_address"`
	MasterKey              string                      `yaml:"master_key"` // hex encoded, 32 bytes
	DispatchTimeoutSeconds int                         `yaml:"dispatch_timeout_seconds"`
	MaxValidityDays        int                         `yaml:"max_validity_days"`
	StoreRetryAttempts     uint                        `yaml:"store_retry_attempts"`
}

type RestServer struct {
	dispatcher *dispatcher.Dispatcher
	httpServer *http.Server
}

func NewRestServerWithConfig(config RestServerConfig) (*RestServer, error) {
	var store storage.SecretStore
	if config.Database.Host != "" {
		masterKey, err := hex.DecodeString(config.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("decode master key: %w", err)
		}
		store, err = postgres.NewSecretStorageWithConfig(config.Database, masterKey)
		if err != nil {
			return nil, err
		}
	} else {
		// No database configured means local development: secrets live in
		// process memory and vanish on restart.
		store = memory.NewSecretStorage()
	}

	retryOptions := []storage.RetryOption{}
	if config.StoreRetryAttempts > 0 {
		retryOptions = append(retryOptions, storage.RetryWithAttempts(config.StoreRetryAttempts))
	}
	retryStore := storage.NewRetrySecretStore(store, retryOptions...)

	certificateOptions := []resource.CertificateOption{}
	if config.MaxValidityDays > 0 {
		certificateOptions = append(certificateOptions, resource.CertificateWithMaxValidityDays(config.MaxValidityDays))
	}
	certificates := resource.NewCertificateResource(retryStore, certificateOptions...)
	bundles := resource.NewPkcs12Resource(retryStore)

	dispatcherOptions := []dispatcher.Option{}
	if config.DispatchTimeoutSeconds > 0 {
		dispatcherOptions = append(dispatcherOptions, dispatcher.WithTimeout(time.Duration(config.DispatchTimeoutSeconds)*time.Second))
	}
	d := dispatcher.NewDispatcher(certificates, bundles, dispatcherOptions...)

	return NewRestServerWithController(d, config.ServerAddress), nil
}

func NewRestServerWithController(d *dispatcher.Dispatcher, address string) *RestServer {
	restServer := &RestServer{
		dispatcher: d,
	}

	router := mux.NewRouter()
	router.Use(Log)
	router.HandleFunc("/events", restServer.postEvent).Methods(http.MethodPost)

	restServer.httpServer = &http.Server{
		Addr:    address,
		Handler: router,
	}

	return restServer
}

func (s *RestServer) Run() error {
	if s.httpServer.Addr == "" {
		return errors.New("no server address configured")
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *RestServer) Close(ctx context.Context) error {
	s.httpServer.SetKeepAlivesEnabled(false)
	return s.httpServer.Shutdown(ctx)
}

// postEvent delivers one lifecycle event. The response is always 200 with a
// response envelope: failures of the operation itself travel inside the
// envelope, not as HTTP status codes, so the orchestrator callback contract
// holds regardless of outcome.
func (s *RestServer) postEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %s", err.Error()), http.StatusBadRequest)
		return
	}

	response := s.dispatcher.DispatchRaw(ctx, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}
