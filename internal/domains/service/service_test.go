package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/traffictuner/traffictuner/internal/domains/domain"
	"github.com/traffictuner/traffictuner/internal/domains/repository"
	"github.com/traffictuner/traffictuner/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Domain{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		err  error
	}{
		{name: "bare_host", in: "Example.com", want: "https://example.com"},
		{name: "strips_path", in: "https://example.com/pricing?a=1", want: "https://example.com"},
		{name: "keeps_subdomain", in: "https://shop.example.com", want: "https://shop.example.com"},
		{name: "rejects_http", in: "http://example.com", err: domain.ErrInsecureURL},
		{name: "rejects_empty", in: "   ", err: domain.ErrInvalidURL},
		{name: "rejects_no_tld", in: "https://localhost", err: domain.ErrInvalidURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := NormalizeURL(tc.in)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, node := newTestService(t)
	userID := node.Generate()

	d, err := svc.Create(context.Background(), domain.CreateRequest{
		UserID: userID,
		URL:    "shop.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", d.URL)
	require.Equal(t, "shop.example.com", d.DisplayName)
	require.Equal(t, "shop-example-com", d.Slug)
	require.Equal(t, domain.StatusActive, d.Status)
}

func TestCreateDuplicate(t *testing.T) {
	svc, node := newTestService(t)
	userID := node.Generate()

	_, err := svc.Create(context.Background(), domain.CreateRequest{UserID: userID, URL: "example.com"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), domain.CreateRequest{UserID: userID, URL: "https://example.com/other"})
	require.ErrorIs(t, err, domain.ErrDomainExists)

	// A different user may register the same site.
	_, err = svc.Create(context.Background(), domain.CreateRequest{UserID: node.Generate(), URL: "example.com"})
	require.NoError(t, err)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, node := newTestService(t)
	owner := node.Generate()

	d, err := svc.Create(context.Background(), domain.CreateRequest{UserID: owner, URL: "example.com"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), node.Generate(), d.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)

	got, err := svc.Get(context.Background(), owner, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)
}

func TestSetPaused(t *testing.T) {
	svc, node := newTestService(t)
	owner := node.Generate()

	d, err := svc.Create(context.Background(), domain.CreateRequest{UserID: owner, URL: "example.com"})
	require.NoError(t, err)

	paused, err := svc.SetPaused(context.Background(), owner, d.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, paused.Status)

	// Pausing twice is a no-op, not a conflict.
	paused, err = svc.SetPaused(context.Background(), owner, d.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, paused.Status)

	resumed, err := svc.SetPaused(context.Background(), owner, d.ID, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, resumed.Status)
}
