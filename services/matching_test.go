package services

import (
	"testing"

	"clan-review-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "khaleesi", NormalizeName("  Khaleesi "))
	assert.Equal(t, "khaleesi", NormalizeName("KHALEESI"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestMatchPlayerName(t *testing.T) {
	roster := map[string]string{
		NormalizeName("Khaleesi"): "a1",
		NormalizeName("DragonRider"): "a2",
	}
	corrections := map[string]string{
		NormalizeName("khalessi"): "Khaleesi",
		NormalizeName("dragonr1der"): "DragonRider",
	}

	// Exact hit, case-insensitive
	assert.Equal(t, "a1", MatchPlayerName("Khaleesi", roster, corrections))
	assert.Equal(t, "a1", MatchPlayerName("KHALEESI", roster, corrections))
	assert.Equal(t, "a1", MatchPlayerName("  khaleesi ", roster, corrections))

	// Hit via correction
	assert.Equal(t, "a1", MatchPlayerName("khalessi", roster, corrections))
	assert.Equal(t, "a2", MatchPlayerName("DragonR1der", roster, corrections))

	// No fuzzy matching — near misses stay unmatched
	assert.Equal(t, "", MatchPlayerName("Khalesi", roster, corrections))
	assert.Equal(t, "", MatchPlayerName("Unknown", roster, corrections))
	assert.Equal(t, "", MatchPlayerName("", roster, corrections))
}

func TestMatchPlayerName_CorrectionToUnknownName(t *testing.T) {
	roster := map[string]string{NormalizeName("Khaleesi"): "a1"}
	// Correction points at a name that left the clan — still unmatched.
	corrections := map[string]string{NormalizeName("j0n"): "Jon"}

	assert.Equal(t, "", MatchPlayerName("j0n", roster, corrections))
}

func TestLoadRoster_ActiveOnly(t *testing.T) {
	db := setupTestDB(t)
	clanID := uuid.NewString()

	active := models.GameAccount{ID: uuid.NewString(), ClanID: clanID, DisplayName: "Khaleesi", IsActive: true}
	inactive := models.GameAccount{ID: uuid.NewString(), ClanID: clanID, DisplayName: "OldTimer", IsActive: false}
	otherClan := models.GameAccount{ID: uuid.NewString(), ClanID: uuid.NewString(), DisplayName: "Stranger", IsActive: true}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Create(&otherClan).Error)

	roster, err := LoadRoster(db, clanID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	assert.Equal(t, active.ID, roster[NormalizeName("Khaleesi")])
}

func TestLoadPlayerCorrections_EntityScoped(t *testing.T) {
	db := setupTestDB(t)
	clanID := uuid.NewString()

	require.NoError(t, db.Create(&models.CorrectionRule{
		ID: uuid.NewString(), ClanID: clanID,
		EntityType: models.CorrectionEntityPlayer,
		OCRText:    "khalessi", CorrectedText: "Khaleesi",
	}).Error)
	require.NoError(t, db.Create(&models.CorrectionRule{
		ID: uuid.NewString(), ClanID: clanID,
		EntityType: models.CorrectionEntityChest,
		OCRText:    "epik chest", CorrectedText: "Epic Chest",
	}).Error)

	corrections, err := LoadPlayerCorrections(db, clanID)
	require.NoError(t, err)
	assert.Len(t, corrections, 1)
	assert.Equal(t, "Khaleesi", corrections[NormalizeName("khalessi")])
}
