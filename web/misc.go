package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/Sirupsen/logrus"
	"github.com/pkg/errors"
)

type jsonerr struct {
	Err string `json:"err"`
}

// JSONError writes a JSON-encoded error body with the given status.
func JSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	js, _ := json.Marshal(jsonerr{msg})
	w.Write(js)
}

// sendRequestProblem logs the problem with the client's request
// and responds with a JSON payload of the error. Client side these
// are usually invisible so this helps with debugging
func sendRequestProblem(w http.ResponseWriter, req *http.Request, responseCode int, reason error) {
	logRequestProblem(req, responseCode, reason)
	JSONError(w, reason.Error(), responseCode)
}

func logRequestProblem(req *http.Request, responseCode int, reason error) {
	var causeMessage string
	if cause := errors.Cause(reason); cause != nil && cause != reason {
		causeMessage = fmt.Sprintf("%v", cause)
	} else {
		causeMessage = "n/a"
	}

	log.WithFields(log.Fields{
		"method":    req.Method,
		"path":      req.URL.Path,
		"ua":        req.UserAgent(),
		"http_code": responseCode,
		"error":     reason.Error(),
		"cause":     causeMessage,
	}).Warning("HTTP Request Problem")
}
