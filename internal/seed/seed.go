package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"github.com/weperezh01/isp-core/internal/auth/password"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	"gorm.io/gorm"
)

const (
	defaultISPName       = "Principal"
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@isp-core.local"
	defaultAdminPassword = "admin"
)

// defaultCatalog is the permission catalog shipped with a fresh install. The
// parent rows gate whole screens; sub rows gate actions inside them.
var defaultCatalog = []permissiondomain.Permission{
	{ID: 1, SubID: 0, Code: "facturacion", Name: "Facturación"},
	{ID: 1, SubID: 1, Code: "facturacion.emitir", Name: "Emitir factura"},
	{ID: 1, SubID: 2, Code: "facturacion.anular", Name: "Anular factura", Advanced: true},
	{ID: 2, SubID: 0, Code: "clientes", Name: "Clientes"},
	{ID: 2, SubID: 1, Code: "clientes.editar", Name: "Editar cliente"},
	{ID: 3, SubID: 0, Code: "conexiones", Name: "Conexiones"},
	{ID: 4, SubID: 0, Code: "routers", Name: "Routers"},
	{ID: 5, SubID: 0, Code: "cobros", Name: "Cobros"},
	{ID: 6, SubID: 0, Code: "contabilidad", Name: "Contabilidad", Advanced: true},
	{ID: 7, SubID: 0, Code: "usuarios", Name: "Usuarios", Advanced: true},
	{ID: 7, SubID: 1, Code: "usuarios.permisos", Name: "Administrar permisos", Advanced: true},
}

// EnsurePermissionCatalog inserts any catalog entries missing from the
// permissions table. Existing rows are left untouched.
func EnsurePermissionCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	ctx := context.Background()
	for _, entry := range defaultCatalog {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO permissions (id, sub_id, code, name, description, advanced)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id, sub_id) DO NOTHING`,
			entry.ID,
			entry.SubID,
			entry.Code,
			entry.Name,
			entry.Description,
			entry.Advanced,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultISPAndAdmin seeds the default ISP tenant and an owner user so
// a fresh install is usable without manual SQL.
func EnsureDefaultISPAndAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isp, err := ensureDefaultISPTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var user authdomain.User
		err = tx.WithContext(ctx).
			Where("username = ?", defaultAdminUsername).
			First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := password.Hash(defaultAdminPassword)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			user = authdomain.User{
				ID:           node.Generate(),
				Username:     defaultAdminUsername,
				Email:        strings.ToLower(defaultAdminEmail),
				FirstName:    "Administrador",
				PasswordHash: hashed,
				Status:       authdomain.UserActive,
				ViewMode:     authdomain.ViewAdvanced,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}

		var member ispdomain.Member
		err = tx.WithContext(ctx).
			Where("isp_id = ? AND user_id = ?", isp.ID, user.ID).
			First(&member).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			member = ispdomain.Member{
				ID:        node.Generate(),
				ISPID:     isp.ID,
				UserID:    user.ID,
				Role:      ispdomain.RoleOwner,
				CreatedAt: time.Now().UTC(),
			}
			if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func ensureDefaultISPTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (ispdomain.ISP, error) {
	var isp ispdomain.ISP
	err := tx.WithContext(ctx).Where("is_default = ?", true).First(&isp).Error
	if err == nil {
		return isp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return isp, err
	}
	now := time.Now().UTC()
	isp = ispdomain.ISP{
		ID:        node.Generate(),
		Name:      defaultISPName,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&isp).Error; err != nil {
		return isp, err
	}
	return isp, nil
}
