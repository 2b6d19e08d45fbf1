// Command dlgauth-curl prints a ready-to-paste Hawk Authorization
// header for a sealed ticket, mirroring
// main/generate-hawk-header/main.go's role for go-syncstorage's own
// token scheme.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/nginx-modules/nginx-dlg-auth/hawk"
	"github.com/nginx-modules/nginx-dlg-auth/sealed"
	"github.com/nginx-modules/nginx-dlg-auth/ticket"
)

func errorAndExit(format string, vals ...interface{}) {
	fmt.Printf(format, vals...)
	fmt.Println()
	os.Exit(1)
}

func nonce() string {
	b := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)[:8]
}

func main() {
	if len(os.Args) < 5 {
		fmt.Printf("Usage: %s <method> <url> <sealed-ticket> <password>\n", path.Base(os.Args[0]))
		os.Exit(1)
	}

	method := os.Args[1]
	rawURL := os.Args[2]
	sealedTicket := os.Args[3]
	password := os.Args[4]

	u, err := url.Parse(rawURL)
	if err != nil {
		errorAndExit("could not parse url: %s", err)
	}

	plaintext, err := sealed.Unseal(sealedTicket, nil, []byte(password))
	if err != nil {
		errorAndExit("could not unseal ticket: %s", err)
	}

	tk, err := ticket.Parse(plaintext)
	if err != nil {
		errorAndExit("could not parse ticket: %s", err)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	rv := hawk.RequestView{Method: method, Path: u.RequestURI(), Host: host, Port: port}
	now := time.Now().Unix()
	n := nonce()
	mac, err := hawk.MAC(tk.HawkAlgorithm.Hash(), []byte(tk.Pwd), now, n, rv, "", "")
	if err != nil {
		errorAndExit("could not compute MAC: %s", err)
	}

	fmt.Printf(`Authorization: Hawk id="%s", ts="%d", nonce="%s", mac="%s"`+"\n",
		sealedTicket, now, n, mac)
}
