package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/x/audit"
)

// run executes the command and returns its output.
func run(t *testing.T, name string, args ...string) []byte {
	t.Helper()
	out, err := tryRun(name, args...)
	require.NoError(t, err, "%s %s", name, strings.Join(args, " "))
	return out
}

func tryRun(name string, args ...string) ([]byte, error) {
	fn, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	var out bytes.Buffer
	err := fn(nil, &out, args)
	return out.Bytes(), err
}

func keygen(t *testing.T, dir, name string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, name+".key")
	addr := strings.TrimSpace(string(run(t, "keygen", "-key", path)))
	return path, addr
}

func TestKeyaddr(t *testing.T) {
	dir := t.TempDir()
	path, addr := keygen(t, dir, "alice")

	out := strings.Fields(string(run(t, "keyaddr", "-key", path, "-bech32")))
	require.Len(t, out, 2)
	assert.Equal(t, custodytest.ParseAddress(t, addr), custodytest.ParseAddress(t, out[0]))
}

func TestEscrowLifecycle(t *testing.T) {
	home := t.TempDir()
	keys := t.TempDir()

	customerKey, customer := keygen(t, keys, "customer")
	_, merchant := keygen(t, keys, "merchant")
	_, authorizer := keygen(t, keys, "authorizer")

	genesis := filepath.Join(keys, "genesis.json")
	require.NoError(t, os.WriteFile(genesis, []byte(fmt.Sprintf(`{
		"wallet": [{"address": %q, "amounts": [{"ticker": "IOV", "quantity": 500}]}]
	}`, customer)), 0600))

	var initOut struct {
		AdminToken string `json:"admin_token"`
	}
	require.NoError(t, json.Unmarshal(run(t, "init", "-home", home, "-genesis", genesis), &initOut))
	require.NotEmpty(t, initOut.AdminToken)

	// Genesis runs only once.
	_, err := tryRun("init", "-home", home)
	require.Error(t, err)

	var created struct {
		EscrowID     uint64 `json:"escrow_id"`
		ReleaseToken string `json:"release_token"`
		RefundToken  string `json:"refund_token"`
	}
	require.NoError(t, json.Unmarshal(run(t, "create", "-home", home,
		"-order", "order-42",
		"-customer", customer,
		"-merchant", merchant,
		"-amount", "200 IOV",
		"-authorizer", authorizer,
	), &created))
	assert.Equal(t, uint64(1), created.EscrowID)
	id := strconv.FormatUint(created.EscrowID, 10)

	var status queryOutput
	require.NoError(t, json.Unmarshal(run(t, "deposit", "-home", home, "-key", customerKey, "-escrow", id, "-amount", "200 IOV"), &status))
	assert.Equal(t, queryOutput{EscrowID: 1, Status: "Funded", Amount: 200, Held: 200, AssetType: "IOV"}, status)

	// The refund token cannot release.
	_, err = tryRun("release", "-home", home, "-escrow", id, "-token", created.RefundToken)
	require.Error(t, err)

	var paid struct {
		Paid asset.Amount `json:"paid"`
	}
	require.NoError(t, json.Unmarshal(run(t, "release", "-home", home, "-escrow", id, "-token", created.ReleaseToken), &paid))
	assert.Equal(t, asset.NewAmount(200, "IOV"), paid.Paid)

	require.NoError(t, json.Unmarshal(run(t, "query", "-home", home, "-escrow", id), &status))
	assert.Equal(t, "Released", status.Status)
	assert.Equal(t, uint64(0), status.Held)

	var balances []asset.Amount
	require.NoError(t, json.Unmarshal(run(t, "balance", "-home", home, "-owner", merchant), &balances))
	assert.Equal(t, []asset.Amount{asset.NewAmount(200, "IOV")}, balances)
	require.NoError(t, json.Unmarshal(run(t, "balance", "-home", home, "-owner", customer), &balances))
	assert.Equal(t, []asset.Amount{asset.NewAmount(300, "IOV")}, balances)

	events := readEvents(t, run(t, "events", "-home", home, "-escrow", id))
	require.Len(t, events, 3)
	assert.Equal(t, audit.TypeReleased, events[2].Type)

	// The rotated audit file received the same events.
	raw, err := os.ReadFile(filepath.Join(home, "audit.jsonl"))
	require.NoError(t, err)
	assert.Len(t, readEvents(t, raw), 3)
}

func TestDisputeFlow(t *testing.T) {
	home := t.TempDir()
	keys := t.TempDir()

	customerKey, customer := keygen(t, keys, "customer")
	_, merchant := keygen(t, keys, "merchant")
	_, arbiter := keygen(t, keys, "arbiter")
	operatorKey, operator := keygen(t, keys, "operator")
	require.NoError(t, os.WriteFile(filepath.Join(home, yamlConfigName),
		[]byte("node_key: "+operatorKey+"\n"), 0600))

	var initOut struct {
		AdminToken string `json:"admin_token"`
	}
	require.NoError(t, json.Unmarshal(run(t, "init", "-home", home), &initOut))
	run(t, "credit", "-home", home, "-owner", customer, "-amount", "50 ETH")

	run(t, "create", "-home", home,
		"-order", "disputed",
		"-customer", customer,
		"-merchant", merchant,
		"-amount", "50 ETH",
		"-authorizer", merchant,
	)
	run(t, "deposit", "-home", home, "-key", customerKey, "-escrow", "1", "-amount", "50 ETH")

	var status queryOutput
	require.NoError(t, json.Unmarshal(run(t, "dispute", "-home", home, "-escrow", "1", "-admin", initOut.AdminToken), &status))
	assert.Equal(t, "Disputed", status.Status)

	run(t, "withdraw", "-home", home, "-escrow", "1", "-admin", initOut.AdminToken, "-recipient", arbiter)

	var balances []asset.Amount
	require.NoError(t, json.Unmarshal(run(t, "balance", "-home", home, "-owner", arbiter), &balances))
	assert.Equal(t, []asset.Amount{asset.NewAmount(50, "ETH")}, balances)

	// Commands run without a key are attributed to the node key.
	events := readEvents(t, run(t, "events", "-home", home, "-escrow", "1"))
	require.Len(t, events, 4)
	operatorAddr := custodytest.ParseAddress(t, operator)
	assert.Equal(t, audit.TypeCreated, events[0].Type)
	assert.Equal(t, operatorAddr, events[0].Actor)
	assert.Equal(t, custodytest.ParseAddress(t, customer), events[1].Actor)
	assert.Equal(t, audit.TypeDisputed, events[2].Type)
	assert.Equal(t, operatorAddr, events[2].Actor)
	assert.Equal(t, operatorAddr, events[3].Actor)
}

func TestCreateChecksPolicy(t *testing.T) {
	home := t.TempDir()
	keys := t.TempDir()

	_, customer := keygen(t, keys, "customer")
	_, merchant := keygen(t, keys, "merchant")
	policyAddr := custodytest.NewCondition().Address()
	require.NoError(t, os.WriteFile(filepath.Join(home, yamlConfigName), []byte(`
authorizers:
  - type: cel
    address: "`+policyAddr.String()+`"
`), 0600))
	run(t, "init", "-home", home)

	create := func(policy string) error {
		_, err := tryRun("create", "-home", home,
			"-order", "policy",
			"-customer", customer,
			"-merchant", merchant,
			"-amount", "5 IOV",
			"-authorizer", policyAddr.String(),
			"-policy", policy,
		)
		return err
	}
	err := create(`1 +`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Policy")

	require.NoError(t, create(`action == "refund"`))
}

func readEvents(t *testing.T, raw []byte) []*audit.Event {
	t.Helper()
	var events []*audit.Event
	s := bufio.NewScanner(bytes.NewReader(raw))
	for s.Scan() {
		var e audit.Event
		require.NoError(t, json.Unmarshal(s.Bytes(), &e))
		events = append(events, &e)
	}
	require.NoError(t, s.Err())
	return events
}
