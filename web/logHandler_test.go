package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newMozlogger(buf *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.Out = buf
	logger.Formatter = &MozlogFormatter{
		Hostname: "test.localdomain",
		Pid:      os.Getpid(),
	}
	return logger
}

func TestLogHandler(t *testing.T) {
	assert := assert.New(t)
	var buf bytes.Buffer

	handler := NewLogHandler(newMozlogger(&buf), EchoHandler)

	request("GET", "/storage/history", nil, handler)

	if !assert.True(buf.Len() > 0) {
		return
	}
	var record mozlog
	if err := json.Unmarshal(buf.Bytes(), &record); !assert.NoError(err) {
		return
	}

	assert.True(record.Timestamp > 0)
	assert.Equal("request.summary", record.Type)
	assert.Equal("nginx-dlg-auth", record.Logger)
	assert.Equal("test.localdomain", record.Hostname)
	assert.Equal("2.0", record.EnvVersion)
	assert.Equal(os.Getpid(), record.Pid)
	assert.Equal(uint8(6), record.Severity)

	tests := map[string]interface{}{
		"errno":  float64(0),
		"method": "GET",
		"agent":  "go-tester",
		"path":   "/storage/history",
	}
	for key, test := range tests {
		assert.Equal(test, record.Fields[key], fmt.Sprintf("Key: %s", key))
	}

	assert.Nil(record.Fields["error"])
}

func TestLogHandlerCarriesPublishedValues(t *testing.T) {
	assert := assert.New(t)
	var buf bytes.Buffer

	publisher := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := &Values{Client: "c1", Expires: "1000", ClockSkew: "0"}
		ctx := newValuesContext(r.Context(), values)
		EchoHandler.ServeHTTP(w, r.WithContext(ctx))
	})

	handler := NewLogHandler(newMozlogger(&buf), publisher)
	request("GET", "/x", nil, handler)

	var record mozlog
	if err := json.Unmarshal(buf.Bytes(), &record); !assert.NoError(err) {
		return
	}

	assert.Equal("c1", record.Fields["client"])
	assert.Equal("1000", record.Fields["expires"])
}

func TestLogHandlerCauseFromContext(t *testing.T) {
	assert := assert.New(t)
	var buf bytes.Buffer

	handler := NewLogHandler(newMozlogger(&buf), OKFailHandler)

	request("GET", "/fail", nil, handler)
	if !assert.True(buf.Len() > 0) {
		return
	}
	var record mozlog
	if err := json.Unmarshal(buf.Bytes(), &record); !assert.NoError(err) {
		return
	}

	assert.Equal(float64(http.StatusBadRequest), record.Fields["errno"])
	assert.Equal("The Error: The Cause", record.Fields["error"])
}

func TestLogHandlerMozlogFormatter(t *testing.T) {
	assert := assert.New(t)
	fields := logrus.Fields{
		"agent":   "benchmark agent",
		"errno":   float64(0),
		"method":  "GET",
		"path":    "/so/fassst",
		"req_sz":  float64(0),
		"res_sz":  float64(1024),
		"t":       float64(20),
		"client":  "c1",
		"expires": "1000",
	}

	entry := logrus.WithFields(fields)
	entry.Level = logrus.InfoLevel
	entry.Time = time.Date(2013, time.January, 14, 0, 0, 0, 0, time.FixedZone("UTC", 0))

	formatter := &MozlogFormatter{
		Hostname: "test.localdomain",
		Pid:      os.Getpid(),
	}

	logData, err := formatter.Format(entry)
	if !assert.NoError(err) {
		return
	}

	var record mozlog
	if err := json.Unmarshal(logData, &record); !assert.NoError(err) {
		return
	}

	assert.True(record.Timestamp > 0)
	assert.Equal("request.summary", record.Type)
	assert.Equal("nginx-dlg-auth", record.Logger)
	assert.Equal("test.localdomain", record.Hostname)
	assert.Equal("2.0", record.EnvVersion)
	assert.Equal(os.Getpid(), record.Pid)
	assert.Equal(uint8(6), record.Severity)

	for key, test := range fields {
		assert.Equal(test, record.Fields[key], fmt.Sprintf("Key: %s", key))
	}
}
