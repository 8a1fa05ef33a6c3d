package models

import (
	"testing"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: User{
				Email:    "test@colprovidencia.cl",
				FullName: "Test User",
				Role:     RoleEstudiante,
			},
			wantErr: false,
		},
		{
			name: "Empty email",
			user: User{
				Email:    "",
				FullName: "Test User",
				Role:     RoleDocente,
			},
			wantErr: true,
		},
		{
			name: "Invalid email",
			user: User{
				Email:    "invalid-email",
				FullName: "Test User",
				Role:     RoleDocente,
			},
			wantErr: true,
		},
		{
			name: "Empty full name",
			user: User{
				Email:    "test@colprovidencia.cl",
				FullName: "",
				Role:     RoleAdmin,
			},
			wantErr: true,
		},
		{
			name: "Full name too short",
			user: User{
				Email:    "test@colprovidencia.cl",
				FullName: "A",
				Role:     RoleAdmin,
			},
			wantErr: true,
		},
		{
			name: "Unknown role",
			user: User{
				Email:    "test@colprovidencia.cl",
				FullName: "Test User",
				Role:     Role("apoderado"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("User.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
