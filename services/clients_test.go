package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterClient(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotRequestID string
	status := http.StatusOK
	body := `{"data":{"character_id":9,"level":42},"message":"ok"}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(utils.RequestIDHeader)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewCharacterClient(srv.URL, "svc-token", srv.Client(), utils.NewDiscardLogger())
	ctx := utils.WithRequestID(context.Background(), "req-123")

	t.Run("OK", func(t *testing.T) {
		level, err := client.CharacterLevel(ctx, 1, 2, 9)
		require.NoError(t, err)
		assert.Equal(t, 42, level)
		assert.Equal(t, "/characters/9", gotPath)
		assert.Equal(t, "account_id=2&realm_id=1", gotQuery)
		assert.Equal(t, "Bearer svc-token", gotAuth)
		assert.Equal(t, "req-123", gotRequestID)
	})

	t.Run("NotFound", func(t *testing.T) {
		status, body = http.StatusNotFound, `{"data":null,"message":"character not found"}`
		_, err := client.CharacterLevel(ctx, 1, 2, 9)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "character", notFound.Resource)
	})

	t.Run("ServerError", func(t *testing.T) {
		status, body = http.StatusBadGateway, `upstream down`
		_, err := client.CharacterLevel(ctx, 1, 2, 9)
		var unavailable *ServiceUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("BadRequestIsNotRetryable", func(t *testing.T) {
		status, body = http.StatusBadRequest, `{"message":"bad realm"}`
		_, err := client.CharacterLevel(ctx, 1, 2, 9)
		require.Error(t, err)
		var unavailable *ServiceUnavailableError
		assert.False(t, errors.As(err, &unavailable))
	})
}

func TestCharacterClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewCharacterClient(srv.URL, "", utils.NewHTTPClient(time.Second), utils.NewDiscardLogger())
	_, err := client.CharacterLevel(context.Background(), 1, 2, 3)
	var unavailable *ServiceUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestBenefitClient(t *testing.T) {
	var gotKey string
	var gotBody grantRequest
	status := http.StatusCreated

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/grants", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"data":null,"message":"done"}`))
	}))
	defer srv.Close()

	client := NewBenefitClient(srv.URL, "svc-token", srv.Client(), utils.NewDiscardLogger())
	wowhead := int64(77)
	grant := models.BenefitGrant{ClaimID: "claim-abc", RealmID: 1, AccountID: 2, CharacterID: 3, CoreItemID: 4, WowheadID: &wowhead}

	t.Run("Created", func(t *testing.T) {
		require.NoError(t, client.Grant(context.Background(), grant))
		assert.Equal(t, "claim-abc", gotKey)
		assert.Equal(t, "claim-abc", gotBody.IdempotencyKey)
		assert.Equal(t, int64(4), gotBody.CoreItemID)
		require.NotNil(t, gotBody.WowheadID)
		assert.Equal(t, wowhead, *gotBody.WowheadID)
	})

	t.Run("ConflictMeansDelivered", func(t *testing.T) {
		status = http.StatusConflict
		assert.NoError(t, client.Grant(context.Background(), grant))
	})

	t.Run("Unavailable", func(t *testing.T) {
		status = http.StatusServiceUnavailable
		err := client.Grant(context.Background(), grant)
		var unavailable *ServiceUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("Rejected", func(t *testing.T) {
		status = http.StatusUnprocessableEntity
		err := client.Grant(context.Background(), grant)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "422")
	})
}
