// Command dlgauth-server runs the delegated Hawk-ticket auth filter as
// a standalone net/http reverse proxy in front of an upstream origin,
// the same shape go-syncstorage's server.go wires its own middleware
// stack in.
package main

import (
	"bufio"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/Sirupsen/logrus"
	"github.com/facebookgo/httpdown"
	"github.com/gorilla/mux"

	"github.com/nginx-modules/nginx-dlg-auth/config"
	"github.com/nginx-modules/nginx-dlg-auth/sealed"
	"github.com/nginx-modules/nginx-dlg-auth/web"
)

func init() {
	switch config.ProcessConfig.Log.Level {
	case "panic":
		log.SetLevel(log.PanicLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadPasswordTable reads "id secret" pairs from path, one per line.
func loadPasswordTable(path string) (sealed.PasswordTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var table sealed.PasswordTable
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		table = append(table, sealed.PasswordEntry{ID: fields[0], Secret: []byte(fields[1])})
	}
	return table, scanner.Err()
}

func main() {
	cfg := config.ProcessConfig

	loc := &config.Location{}
	loc.SetRealm(cfg.Realm)
	loc.SetAllowedClockSkew(cfg.AllowedClockSkew)

	if cfg.PasswordFile != "" {
		table, err := loadPasswordTable(cfg.PasswordFile)
		if err != nil {
			log.Fatalf("could not load PASSWORD_FILE: %s", err)
		}
		for _, entry := range table {
			if err := loc.AddPasswordTableEntry(entry.ID, entry.Secret); err != nil {
				log.Fatalf("invalid PASSWORD_FILE entry %q: %s", entry.ID, err)
			}
		}
	}
	loc.Merge(nil)
	if err := loc.Validate(); err != nil {
		log.Fatalf("invalid location config: %s", err)
	}

	upstream := os.Getenv("UPSTREAM_URL")
	if upstream == "" {
		log.Fatal("UPSTREAM_URL is required")
	}
	target, err := url.Parse(upstream)
	if err != nil {
		log.Fatalf("invalid UPSTREAM_URL: %s", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	protected := web.Middleware(loc, proxy)

	mr := mux.NewRouter()
	mr.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	mr.PathPrefix("/").Handler(protected)

	var router http.Handler = mr
	router = web.NewLogHandler(log.StandardLogger(), router)

	if cfg.EnablePprof {
		log.Info("Enabling pprof profile at /debug/pprof/")
		router = web.NewPprofHandler(router)
	}

	if cfg.Log.Mozlog {
		log.SetFormatter(&web.MozlogFormatter{
			Hostname: cfg.Hostname,
			Pid:      os.Getpid(),
		})
	}

	listenOn := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:    listenOn,
		Handler: router,
	}

	hd := &httpdown.HTTP{
		StopTimeout: 3 * time.Minute,
		KillTimeout: 2 * time.Minute,
	}

	log.WithFields(log.Fields{
		"addr":               listenOn,
		"realm":              loc.Realm,
		"allowed_clock_skew": loc.AllowedClockSkew,
		"upstream":           upstream,
	}).Info("HTTP Listening at " + listenOn)

	if err := httpdown.ListenAndServe(server, hd); err != nil {
		log.Error(err.Error())
	}
}
