package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	domainsdomain "github.com/traffictuner/traffictuner/internal/domains/domain"
	domainsrepository "github.com/traffictuner/traffictuner/internal/domains/repository"
	domainsservice "github.com/traffictuner/traffictuner/internal/domains/service"
	"github.com/traffictuner/traffictuner/internal/tracking/domain"
	"github.com/traffictuner/traffictuner/internal/tracking/repository"
	"github.com/traffictuner/traffictuner/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, domainsdomain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domainsdomain.Domain{}, &domain.TrackingConfiguration{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	domainsSvc := domainsservice.New(domainsservice.Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  domainsrepository.Provide(),
	})
	svc := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Domains: domainsSvc,
	})
	return svc, domainsSvc, node
}

func mustDomain(t *testing.T, svc domainsdomain.Service, userID snowflake.ID, url string) *domainsdomain.Domain {
	t.Helper()
	d, err := svc.Create(context.Background(), domainsdomain.CreateRequest{UserID: userID, URL: url})
	require.NoError(t, err)
	return d
}

func TestCreateValidation(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: "mixpanel", TrackingID: "x", Name: "x",
	})
	require.ErrorIs(t, err, domain.ErrUnknownPlatform)

	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "UA-123", Name: "x",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTrackingID)

	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4", Name: "  ",
	})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	c, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: " G-ABC123DEF4 ", Name: "Main site", IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "G-ABC123DEF4", c.TrackingID)
	require.True(t, c.IsActive)
	require.Nil(t, c.DomainID)
}

func TestCreateRejectsForeignDomainScope(t *testing.T) {
	svc, domainsSvc, node := newTestService(t)
	owner := node.Generate()
	other := node.Generate()
	d := mustDomain(t, domainsSvc, owner, "example.com")

	_, err := svc.Create(context.Background(), domain.CreateRequest{
		UserID: other, Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4",
		Name: "x", DomainID: &d.ID,
	})
	require.ErrorIs(t, err, domainsdomain.ErrNotOwner)
}

func TestCreateActiveConflict(t *testing.T) {
	svc, domainsSvc, node := newTestService(t)
	userID := node.Generate()
	d := mustDomain(t, domainsSvc, userID, "example.com")
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4",
		Name: "all domains", IsActive: true,
	})
	require.NoError(t, err)

	// The global configuration already covers domain-scoped GA4.
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-XYZ987ABC1",
		Name: "scoped", DomainID: &d.ID, IsActive: true,
	})
	require.ErrorIs(t, err, domain.ErrConflictingActiveConfig)

	// Inactive configurations never conflict.
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-XYZ987ABC1",
		Name: "scoped", DomainID: &d.ID,
	})
	require.NoError(t, err)

	// Another platform is fine.
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGTM, TrackingID: "GTM-ABC1234",
		Name: "container", IsActive: true,
	})
	require.NoError(t, err)

	// Another user is fine too.
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: node.Generate(), Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4",
		Name: "theirs", IsActive: true,
	})
	require.NoError(t, err)
}

func TestUpdateActivationConflict(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformClarity, TrackingID: "abcdefghij",
		Name: "live", IsActive: true,
	})
	require.NoError(t, err)

	standby, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformClarity, TrackingID: "jihgfedcba",
		Name: "standby",
	})
	require.NoError(t, err)

	active := true
	_, err = svc.Update(ctx, userID, standby.ID, domain.UpdateRequest{IsActive: &active})
	require.ErrorIs(t, err, domain.ErrConflictingActiveConfig)

	// Renaming the inactive one is allowed.
	name := "spare"
	got, err := svc.Update(ctx, userID, standby.ID, domain.UpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "spare", got.Name)
	require.False(t, got.IsActive)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()
	ctx := context.Background()

	c, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGTM, TrackingID: "GTM-ABC1234", Name: "container",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, node.Generate(), c.ID), domain.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, userID, c.ID))
	require.NoError(t, svc.Delete(ctx, userID, c.ID))

	_, err = svc.Get(ctx, userID, c.ID)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestCodeForDomainCombinesApplicableConfigs(t *testing.T) {
	svc, domainsSvc, node := newTestService(t)
	userID := node.Generate()
	site := mustDomain(t, domainsSvc, userID, "example.com")
	otherSite := mustDomain(t, domainsSvc, userID, "other.example.com")
	ctx := context.Background()

	// Pixel scoped to the site, container global, clarity inactive,
	// GA4 on a different site.
	_, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformMetaPixel, TrackingID: "123456789012345",
		Name: "pixel", DomainID: &site.ID, IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGTM, TrackingID: "GTM-ABC1234",
		Name: "container", IsActive: true,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformClarity, TrackingID: "abcdefghij",
		Name: "heatmaps", DomainID: &site.ID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4",
		Name: "other site", DomainID: &otherSite.ID, IsActive: true,
	})
	require.NoError(t, err)

	code, err := svc.CodeForDomain(ctx, userID, site.ID)
	require.NoError(t, err)
	require.Len(t, code.Snippets, 2)
	require.Equal(t, domain.PlatformGTM, code.Snippets[0].Platform)
	require.Equal(t, domain.PlatformMetaPixel, code.Snippets[1].Platform)
	require.NotContains(t, code.Combined, "clarity.ms")
	require.NotContains(t, code.Combined, "G-ABC123DEF4")

	// The container snippet precedes the pixel snippet.
	require.Less(t,
		strings.Index(code.Combined, "GTM-ABC1234"),
		strings.Index(code.Combined, "123456789012345"),
	)
}

func TestCodeForConfigIgnoresActiveFlag(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()
	ctx := context.Background()

	c, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformClarity, TrackingID: "abcdefghij", Name: "preview",
	})
	require.NoError(t, err)
	require.False(t, c.IsActive)

	code, err := svc.CodeForConfig(ctx, userID, c.ID)
	require.NoError(t, err)
	require.Contains(t, code, `"clarity", "script", "abcdefghij"`)
}

func TestBulkToggle(t *testing.T) {
	svc, _, node := newTestService(t)
	userID := node.Generate()
	stranger := node.Generate()
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGTM, TrackingID: "GTM-ABC1234", Name: "a", IsActive: true,
	})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.CreateRequest{
		UserID: userID, Platform: domain.PlatformGA4, TrackingID: "G-ABC123DEF4", Name: "b", IsActive: true,
	})
	require.NoError(t, err)

	updated, err := svc.BulkToggle(ctx, userID, []snowflake.ID{a.ID, b.ID}, false)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)

	// Re-applying the same state touches nothing; foreign IDs are skipped.
	updated, err = svc.BulkToggle(ctx, userID, []snowflake.ID{a.ID, b.ID}, false)
	require.NoError(t, err)
	require.EqualValues(t, 0, updated)
	updated, err = svc.BulkToggle(ctx, stranger, []snowflake.ID{a.ID}, true)
	require.NoError(t, err)
	require.EqualValues(t, 0, updated)
}
