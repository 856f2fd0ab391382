package account

import (
	"context"
	"errors"
	"testing"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockUserDB(ctrl)
	service := NewAccountService(mockRepo, bcrypt.MinCost)

	tests := []struct {
		name          string
		creds         Credentials
		mockSetup     func()
		expectedError error
		expectedField string
	}{
		{
			name:  "valid_account",
			creds: Credentials{Username: "alice", Password: "correct-horse"},
			mockSetup: func() {
				mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
					require.Equal(t, "alice", u.Username)
					require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))
					return nil
				})
			},
		},
		{
			name:          "short_username",
			creds:         Credentials{Username: "al", Password: "correct-horse"},
			mockSetup:     func() {},
			expectedError: auctionerrors.ErrValidation,
			expectedField: "username",
		},
		{
			name:          "username_with_symbols",
			creds:         Credentials{Username: "al ice!", Password: "correct-horse"},
			mockSetup:     func() {},
			expectedError: auctionerrors.ErrValidation,
			expectedField: "username",
		},
		{
			name:          "short_password",
			creds:         Credentials{Username: "alice", Password: "short"},
			mockSetup:     func() {},
			expectedError: auctionerrors.ErrValidation,
			expectedField: "password",
		},
		{
			name:  "username_taken",
			creds: Credentials{Username: "alice", Password: "correct-horse"},
			mockSetup: func() {
				mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(auctionerrors.ErrUserExists)
			},
			expectedError: auctionerrors.ErrUserExists,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			user, err := service.Register(context.Background(), tc.creds)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				if tc.expectedField != "" {
					require.Contains(t, auctionerrors.FieldErrors(err), tc.expectedField)
				}
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, user.ID)
		})
	}
}

func TestAccountService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockUserDB(ctrl)
	service := NewAccountService(mockRepo, bcrypt.MinCost)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := models.User{ID: "u1", Username: "alice", PasswordHash: string(hash)}

	tests := []struct {
		name          string
		creds         Credentials
		mockSetup     func()
		expectedError error
	}{
		{
			name:      "valid_credentials",
			creds:     Credentials{Username: "alice", Password: "correct-horse"},
			mockSetup: func() { mockRepo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(alice, nil) },
		},
		{
			name:          "wrong_password",
			creds:         Credentials{Username: "alice", Password: "battery-staple"},
			mockSetup:     func() { mockRepo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(alice, nil) },
			expectedError: auctionerrors.ErrInvalidCredentials,
		},
		{
			name:  "unknown_user",
			creds: Credentials{Username: "bob", Password: "correct-horse"},
			mockSetup: func() {
				mockRepo.EXPECT().GetUserByUsername(gomock.Any(), "bob").Return(models.User{}, auctionerrors.ErrUserNotFound)
			},
			expectedError: auctionerrors.ErrInvalidCredentials,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			id, err := service.Login(context.Background(), tc.creds)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				require.True(t, id.Anonymous())
				return
			}
			require.NoError(t, err)
			require.Equal(t, models.Identity{UserID: "u1", Username: "alice"}, id)
		})
	}
}

func TestAccountService_Identify(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := repository.NewMockUserDB(ctrl)
	service := NewAccountService(mockRepo, bcrypt.MinCost)

	id, err := service.Identify(context.Background(), "")
	require.NoError(t, err)
	require.True(t, id.Anonymous())

	mockRepo.EXPECT().GetUserByID(gomock.Any(), "gone").Return(models.User{}, auctionerrors.ErrUserNotFound)
	id, err = service.Identify(context.Background(), "gone")
	require.NoError(t, err)
	require.True(t, id.Anonymous())

	mockRepo.EXPECT().GetUserByID(gomock.Any(), "u1").Return(models.User{ID: "u1", Username: "alice"}, nil)
	id, err = service.Identify(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", id.Username)
}
