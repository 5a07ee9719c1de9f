package api_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/renderwell/farmpki/pkg/cert_handler/api"
	"github.com/renderwell/farmpki/pkg/cert_handler/dispatcher"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/resource"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage/memory"
	"github.com/renderwell/farmpki/pkg/util"
	"github.com/stretchr/testify/suite"
)

type RestServerTestSuite struct {
	suite.Suite

	ctx            context.Context
	basePortNumber int32
	serverAddress  string

	store      *memory.SecretStorage
	restServer *api.RestServer
}

func TestRestServerTestSuite(t *testing.T) {
	suite.Run(t, new(RestServerTestSuite))
}

func (s *RestServerTestSuite) SetupSuite() {
	s.basePortNumber = 10100
}

func (s *RestServerTestSuite) SetupTest() {
	s.ctx = context.Background()

	portNum := atomic.AddInt32(&s.basePortNumber, 1)
	s.serverAddress = fmt.Sprintf("localhost:%d", portNum)

	s.store = memory.NewSecretStorage()
	d := dispatcher.NewDispatcher(
		resource.NewCertificateResource(s.store),
		resource.NewPkcs12Resource(s.store),
	)
	s.restServer = api.NewRestServerWithController(d, s.serverAddress)

	go func() {
		s.restServer.Run()
	}()
	time.Sleep(100 * time.Millisecond)
}

func (s *RestServerTestSuite) TearDownTest() {
	s.restServer.Close(s.ctx)
}

func (s *RestServerTestSuite) postEvent(event model.Event) model.Response {
	endPoint := fmt.Sprintf("http://%s/events", s.serverAddress)
	httpResponse, err := http.Post(endPoint, "application/json", util.StructToJSONReader(event))
	s.Require().NoError(err)
	defer httpResponse.Body.Close()
	s.Require().Equal(http.StatusOK, httpResponse.StatusCode)

	response := model.Response{}
	s.Require().NoError(json.NewDecoder(httpResponse.Body).Decode(&response))
	return response
}

func (s *RestServerTestSuite) TestPostEvent() {
	props, err := json.Marshal(model.CertificateProperties{
		CommonName:   "renderfarm.local",
		ValidityDays: 365,
	})
	s.Require().NoError(err)

	response := s.postEvent(model.Event{
		RequestType:        model.RequestTypeCreate,
		ResourceType:       model.ResourceTypeCertificate,
		RequestID:          "req-1",
		LogicalResourceID:  "renderfarm",
		ResourceProperties: props,
	})

	s.Require().Equal(model.StatusSuccess, response.Status, response.Reason)
	s.Require().Equal("req-1", response.RequestID)
	s.Require().NotEmpty(response.PhysicalResourceID)
	s.Require().Contains(response.Data, "certSecretRef")

	certRef, err := model.ParseSecretRef(response.Data["certSecretRef"])
	s.Require().NoError(err)
	_, err = s.store.GetSecret(s.ctx, certRef)
	s.Require().NoError(err)
}

func (s *RestServerTestSuite) TestPostEventFailureTravelsInEnvelope() {
	response := s.postEvent(model.Event{
		RequestType:       model.RequestTypeCreate,
		ResourceType:      "RenderFarm::Unknown",
		LogicalResourceID: "renderfarm",
	})

	s.Require().Equal(model.StatusFailed, response.Status)
	s.Require().Contains(response.Reason, "unknown resource type")
}

func (s *RestServerTestSuite) TestPostEventMalformedPayload() {
	endPoint := fmt.Sprintf("http://%s/events", s.serverAddress)
	httpResponse, err := http.Post(endPoint, "application/json", bytes.NewReader([]byte(`{not json`)))
	s.Require().NoError(err)
	defer httpResponse.Body.Close()
	s.Require().Equal(http.StatusOK, httpResponse.StatusCode)

	response := model.Response{}
	s.Require().NoError(json.NewDecoder(httpResponse.Body).Decode(&response))
	s.Require().Equal(model.StatusFailed, response.Status)
	s.Require().Contains(response.Reason, "malformed event payload")
}

func (s *RestServerTestSuite) TestUnknownPathReturns404() {
	endPoint := fmt.Sprintf("http://%s/other", s.serverAddress)
	httpResponse, err := http.Get(endPoint)
	s.Require().NoError(err)
	defer httpResponse.Body.Close()
	s.Require().Equal(http.StatusNotFound, httpResponse.StatusCode)
}
