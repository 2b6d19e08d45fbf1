// Command dlgauth-seal mints a sealed authorization ticket from the
// command line, for operators bootstrapping Hawk credentials without
// writing a client library. Flag style follows
// bin/benchmarkWrite.go's use of codegangsta/cli.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/codegangsta/cli"

	"github.com/nginx-modules/nginx-dlg-auth/sealed"
	"github.com/nginx-modules/nginx-dlg-auth/ticket"
)

func main() {
	app := cli.NewApp()
	app.Name = "dlgauth-seal"
	app.Usage = "Mint a sealed Hawk authorization ticket"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "client, c", Usage: "opaque client identifier"},
		cli.StringFlag{Name: "pwd, p", Usage: "Hawk MAC key embedded in the ticket"},
		cli.StringFlag{Name: "algorithm, a", Value: "sha256", Usage: "sha256 or sha1"},
		cli.IntFlag{Name: "exp, e", Usage: "expiry, unix seconds"},
		cli.BoolFlag{Name: "rw", Usage: "grant write access as well as read"},
		cli.StringFlag{Name: "scope, s", Usage: "comma separated realm scope, e.g. api,admin"},
		cli.StringFlag{Name: "seal-password", Usage: "password used to seal the ticket"},
		cli.StringFlag{Name: "seal-password-id", Usage: "password ID, for password-table rotation"},
	}

	app.Action = func(c *cli.Context) {
		if c.String("client") == "" || c.String("pwd") == "" || c.Int("exp") == 0 || c.String("seal-password") == "" {
			fmt.Println("client, pwd, exp, and seal-password are required")
			os.Exit(1)
		}

		var scope []string
		if s := c.String("scope"); s != "" {
			for _, realm := range strings.Split(s, ",") {
				scope = append(scope, strings.TrimSpace(realm))
			}
		}

		if _, ok := algorithmName(c.String("algorithm")); !ok {
			fmt.Printf("unknown algorithm %q\n", c.String("algorithm"))
			os.Exit(1)
		}

		data, err := json.Marshal(struct {
			Client        string   `json:"client"`
			Pwd           string   `json:"pwd"`
			HawkAlgorithm string   `json:"hawkAlgorithm"`
			Exp           int      `json:"exp"`
			RW            bool     `json:"rw"`
			Scope         []string `json:"scope,omitempty"`
		}{
			Client:        c.String("client"),
			Pwd:           c.String("pwd"),
			HawkAlgorithm: c.String("algorithm"),
			Exp:           c.Int("exp"),
			RW:            c.Bool("rw"),
			Scope:         scope,
		})
		if err != nil {
			fmt.Printf("could not encode ticket: %s\n", err)
			os.Exit(1)
		}

		password := []byte(c.String("seal-password"))
		var sealedValue string
		if id := c.String("seal-password-id"); id != "" {
			sealedValue, err = sealed.SealWithID(data, id, password)
		} else {
			sealedValue, err = sealed.Seal(data, password)
		}
		if err != nil {
			fmt.Printf("could not seal ticket: %s\n", err)
			os.Exit(1)
		}

		fmt.Println(sealedValue)
	}

	app.Run(os.Args)
}

// algorithmName is a thin local check so the CLI fails fast on a typo
// instead of producing a sealed ticket the filter will reject at
// authentication time.
func algorithmName(name string) (ticket.Algorithm, bool) {
	switch name {
	case "sha256":
		return ticket.AlgorithmSHA256, true
	case "sha1":
		return ticket.AlgorithmSHA1, true
	default:
		return ticket.AlgorithmUnknown, false
	}
}
