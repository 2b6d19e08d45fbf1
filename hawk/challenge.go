package hawk

import (
	"crypto"
	"fmt"
	"strconv"
)

// SimpleChallenge formats `Hawk realm="<realm>"`, used for any
// failure prior to successful MAC verification, or for scope/expiry
// denial (spec.md §4.5 send_simple_401).
func SimpleChallenge(realm string) string {
	return fmt.Sprintf(`Hawk realm=%q`, realm)
}

// SimpleChallengeLen returns the exact byte length SimpleChallenge
// will produce, mirroring hawkc's calculate-then-write discipline so
// callers that want to preallocate (as the nginx module does with
// pool buffers) can. Go callers normally don't need this, but it is
// kept to preserve the §4.3 "length-query operation... must match the
// construction to the byte" contract.
func SimpleChallengeLen(realm string) int {
	return len(`Hawk realm=`) + len(strconv.Quote(realm))
}

// TimedChallenge formats the augmented challenge sent when the
// server has already authenticated the client (unsealed the ticket
// and validated the MAC) but rejected the request for clock skew: it
// adds the server's current time and a MAC over that value so the
// client can trust the resync hint.
func TimedChallenge(realm string, alg crypto.Hash, key []byte, now int64) (string, error) {
	tsm, err := tsMAC(alg, key, now)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Hawk realm=%q, ts="%d", tsm=%q`, realm, now, tsm), nil
}

// TimedChallengeLen returns the exact byte length TimedChallenge will
// produce for the same arguments (the tsm value's length is fixed by
// the algorithm's digest size and base64 encoding, so it can be
// computed without running the MAC).
func TimedChallengeLen(realm string, alg crypto.Hash, now int64) int {
	tsmLen := base64Len(alg.Size())
	return len(`Hawk realm=, ts="", tsm=""`) + len(strconv.Quote(realm)) + len(fmt.Sprintf("%d", now)) + tsmLen
}

func base64Len(n int) int {
	return (n + 2) / 3 * 4
}
