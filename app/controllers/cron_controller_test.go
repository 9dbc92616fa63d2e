package controllers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
)

type fakeAccountRepo struct {
	repository.AccountRepository
	accounts []models.Account
	listErr  error
}

func (f *fakeAccountRepo) List() ([]models.Account, error) {
	return f.accounts, f.listErr
}

func TestAccountIDsForInvalidation(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []models.Account{
		{ID: 3, InstagramID: "ig-3"},
		{ID: 7, InstagramID: "ig-7"},
	}}

	ids, err := accountIDsForInvalidation(repo)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 7}, ids)
}

func TestAccountIDsForInvalidationSurfacesListError(t *testing.T) {
	repo := &fakeAccountRepo{listErr: errors.New("connection lost")}

	ids, err := accountIDsForInvalidation(repo)
	require.Error(t, err)
	assert.Nil(t, ids)
}
