package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Corporation{},
		&domain.Character{},
		&domain.CharacterOwnership{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return db, node
}

func TestFindOwnerResolvesThroughOwnershipLink(t *testing.T) {
	db, node := openTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	owner, err := repo.FindOwner(ctx, 90000001)
	require.NoError(t, err)
	assert.Nil(t, owner)

	mainID := int64(90000001)
	user := &domain.User{ID: node.Generate(), Username: "pilot one", State: "member", MainCharacterID: &mainID}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&domain.CharacterOwnership{
		ID:          node.Generate(),
		CharacterID: 90000001,
		UserID:      user.ID,
	}).Error)

	owner, err = repo.FindOwner(ctx, 90000001)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, user.ID, owner.ID)
	assert.Equal(t, "pilot one", owner.Username)
}

func TestMainCountsByStateExcludesDeletedUsers(t *testing.T) {
	db, node := openTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Character{CharacterID: 1, Name: "a", CorporationID: 2001}).Error)
	require.NoError(t, db.Create(&domain.Character{CharacterID: 2, Name: "b", CorporationID: 2001}).Error)
	require.NoError(t, db.Create(&domain.Character{CharacterID: 3, Name: "c", CorporationID: 2002}).Error)

	seedUser := func(username, state string, main int64) {
		require.NoError(t, db.Create(&domain.User{
			ID: node.Generate(), Username: username, State: state, MainCharacterID: &main,
		}).Error)
	}
	seedUser("a", "member", 1)
	seedUser("b", "member", 2)
	seedUser("c", "guest", 3)
	seedUser("deleted", "member", 1)

	counts, err := repo.MainCountsByState(ctx, "member")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.EqualValues(t, 2001, counts[0].CorporationID)
	assert.Equal(t, 2, counts[0].Mains)
}

func TestSaveCorporationUpserts(t *testing.T) {
	db, _ := openTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveCorporation(ctx, &domain.Corporation{CorporationID: 2001, Name: "Before", TaxRate: 0.1}))
	require.NoError(t, repo.SaveCorporation(ctx, &domain.Corporation{CorporationID: 2001, Name: "After", TaxRate: 0.2}))

	corporation, err := repo.FindCorporation(ctx, 2001)
	require.NoError(t, err)
	require.NotNil(t, corporation)
	assert.Equal(t, "After", corporation.Name)
	assert.InDelta(t, 0.2, corporation.TaxRate, 1e-9)
}
