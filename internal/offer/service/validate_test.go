package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/troyjfarrell/offergate/internal/offer/domain"
)

type fakeGrain struct {
	id    string
	title string
}

func (g fakeGrain) GrainID() string { return g.id }
func (g fakeGrain) Title() string   { return g.title }

func TestParseOfferRequest(t *testing.T) {
	t.Parallel()

	t.Run("valid payload", func(t *testing.T) {
		req, err := ParseOfferRequest(json.RawMessage(`{"rpcId":"r1","template":"$API_TOKEN"}`))
		require.NoError(t, err)
		require.Equal(t, "r1", req.RPCID)
		require.Equal(t, "$API_TOKEN", req.Template)
	})

	t.Run("missing rpcId is uncorrelatable", func(t *testing.T) {
		_, err := ParseOfferRequest(json.RawMessage(`{"template":"x"}`))
		require.ErrorIs(t, err, ErrNoCorrelation)
	})

	t.Run("salvages rpcId from a type-broken payload", func(t *testing.T) {
		req, err := ParseOfferRequest(json.RawMessage(`{"rpcId":"r2","template":42}`))
		require.ErrorIs(t, err, ErrInvalidRequest)
		require.Equal(t, "r2", req.RPCID)
	})

	t.Run("syntactically broken payload is uncorrelatable", func(t *testing.T) {
		_, err := ParseOfferRequest(json.RawMessage(`{"rpcId":`))
		require.ErrorIs(t, err, ErrNoCorrelation)
	})
}

func TestValidateOfferRequest(t *testing.T) {
	t.Parallel()

	grain := fakeGrain{id: "grain-1", title: "My Grain"}

	valid := func() domain.OfferRequest {
		return domain.OfferRequest{RPCID: "r1", Template: "$API_TOKEN"}
	}

	t.Run("missing grain context", func(t *testing.T) {
		req := valid()
		require.ErrorIs(t, ValidateOfferRequest(&req, nil), ErrNoGrainContext)
		require.ErrorIs(t, ValidateOfferRequest(&req, fakeGrain{}), ErrNoGrainContext)
	})

	t.Run("blank template", func(t *testing.T) {
		req := valid()
		req.Template = "   "
		require.ErrorIs(t, ValidateOfferRequest(&req, grain), ErrInvalidRequest)
	})

	t.Run("unknown clipboard button", func(t *testing.T) {
		req := valid()
		req.ClipboardButton = "middle"
		require.ErrorIs(t, ValidateOfferRequest(&req, grain), ErrInvalidClipboard)
	})

	t.Run("clientapp scheme restricted to scheme characters", func(t *testing.T) {
		for _, bad := range []string{"my app", "app:", "java script:alert(1)", "a/b", "räksmörgås"} {
			req := valid()
			req.ClientApp = bad
			require.ErrorIs(t, ValidateOfferRequest(&req, grain), ErrInvalidClientApp, "clientapp %q", bad)
		}
	})

	t.Run("clientapp is lower-cased", func(t *testing.T) {
		req := valid()
		req.ClientApp = "MyApp+v2"
		require.NoError(t, ValidateOfferRequest(&req, grain))
		require.Equal(t, "myapp+v2", req.ClientApp)
	})

	t.Run("plus-suffixed scheme accepted", func(t *testing.T) {
		req := valid()
		req.ClientApp = "web+myapp"
		require.NoError(t, ValidateOfferRequest(&req, grain))
		require.Equal(t, "web+myapp", req.ClientApp)
	})

	t.Run("defaults applied", func(t *testing.T) {
		req := valid()
		require.NoError(t, ValidateOfferRequest(&req, grain))
		require.Equal(t, domain.DefaultPetname, req.Petname)
		require.JSONEq(t, string(domain.FullAccessRole), string(req.RoleAssignment))
	})

	t.Run("caller values preserved", func(t *testing.T) {
		req := valid()
		req.Petname = "my connector"
		req.RoleAssignment = json.RawMessage(`{"roleId":3}`)
		req.ClipboardButton = domain.ClipboardLeft
		require.NoError(t, ValidateOfferRequest(&req, grain))
		require.Equal(t, "my connector", req.Petname)
		require.Equal(t, json.RawMessage(`{"roleId":3}`), req.RoleAssignment)
	})
}
