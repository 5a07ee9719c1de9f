package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

type RestClient struct {
	server string // http://server/
}

func NewRestClient(server string) *RestClient {
	return &RestClient{
		server: server,
	}
}

// SendEvent delivers a raw lifecycle event envelope and returns the decoded
// response envelope.
func (r *RestClient) SendEvent(payload []byte) (model.Response, error) {
	response := model.Response{}
	if err := r.execute(http.MethodPost, "/events", bytes.NewReader(payload), &response); err != nil {
		return model.Response{}, err
	}
	return response, nil
}

func (r *RestClient) execute(method, path string, body io.Reader, result any) error {
	endPoint := r.server + path
	req, err := http.NewRequest(method, endPoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if status/100 != 2 {
		message, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d, message: %s", status, string(message))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return err
	}
	return nil
}
