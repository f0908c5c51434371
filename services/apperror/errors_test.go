package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "module", 1))

	err := FromDB(gorm.ErrRecordNotFound, "module", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "module 7: not found", err.Error())

	boom := errors.New("connection reset")
	err = FromDB(boom, "module", 7)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}
