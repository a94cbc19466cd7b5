package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	sql := "SELECT `id` FROM `users` WHERE `id` = ?"
	params := []Value{Int(5)}

	id1, err := Fingerprint(sql, params)
	require.NoError(t, err)
	id2, err := Fingerprint(sql, params)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "Fingerprint must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithInput(t *testing.T) {
	sql := "SELECT `id` FROM `users` WHERE `id` = ?"

	base := MustFingerprint(sql, []Value{Int(5)})
	otherValue := MustFingerprint(sql, []Value{Int(6)})
	otherKind := MustFingerprint(sql, []Value{Text("5")})
	otherSQL := MustFingerprint("SELECT `id` FROM `users` WHERE `uid` = ?", []Value{Int(5)})

	assert.NotEqual(t, base, otherValue)
	assert.NotEqual(t, base, otherKind, "Int(5) and Text(\"5\") must not collide")
	assert.NotEqual(t, base, otherSQL)
}

func TestFingerprintParamOrderMatters(t *testing.T) {
	sql := "SELECT * FROM `t` WHERE `a` = ? AND `b` = ?"

	ab := MustFingerprint(sql, []Value{Int(1), Int(2)})
	ba := MustFingerprint(sql, []Value{Int(2), Int(1)})
	assert.NotEqual(t, ab, ba)
}

func TestFingerprintNilParams(t *testing.T) {
	assert.Equal(t,
		MustFingerprint("DELETE FROM `t`", nil),
		MustFingerprint("DELETE FROM `t`", []Value{}))
}

func TestFingerprintRawVersusText(t *testing.T) {
	sql := "INSERT INTO `f` (`data`) VALUES (?)"
	assert.NotEqual(t,
		MustFingerprint(sql, []Value{Raw("AQI=")}),
		MustFingerprint(sql, []Value{Text("AQI=")}))
}
