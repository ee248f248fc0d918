package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-service/internal/auctionService"
	"auction-service/internal/auth"
	model "auction-service/internal/models"
	"auction-service/internal/repository"
	"auction-service/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret"

// TestEnv bundles the router with the pieces tests need to seed state and
// mint tokens.
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
	JWT    *auth.JWTManager
}

// SetupTestRouter initializes the router with an in-memory repository for
// integration testing.
func SetupTestRouter(listings ...model.Listing) TestEnv {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, l := range listings {
		repo.AddListing(l)
	}

	jwtManager := auth.NewJWTManager(testJWTSecret, time.Hour)
	service := auction.NewAuctionService(repo)
	router := server.SetupRouter(service, jwtManager)

	return TestEnv{Router: router, Repo: repo, JWT: jwtManager}
}

// TokenFor mints a valid bearer token for the given user.
func (e TestEnv) TokenFor(t *testing.T, userID, email string) string {
	t.Helper()
	token, err := e.JWT.GenerateToken(userID, email)
	require.NoError(t, err)
	return token
}

// AuctionListing builds a seeded listing with a running auction.
func AuctionListing(listingID string, startingBid float64, end time.Time) model.Listing {
	return model.Listing{
		ListingID:  listingID,
		Title:      listingID + " title",
		OwnerID:    "owner1",
		OwnerEmail: "owner1@example.com",
		HasAuction: true,
		Status:     model.ListingStatusListed,
		Auction: model.Auction{
			Status:      model.AuctionActive,
			EndTime:     &end,
			StartingBid: startingBid,
			CurrentBid:  startingBid,
		},
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// parses the response envelope. An empty token leaves the request anonymous.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, token string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// DataObject extracts the data envelope field as an object.
func DataObject(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response data is not an object: %v", resp["data"])
	return data
}

// DataArray extracts the data envelope field as an array.
func DataArray(t *testing.T, resp map[string]any) []any {
	t.Helper()
	data, ok := resp["data"].([]any)
	require.True(t, ok, "response data is not an array: %v", resp["data"])
	return data
}
