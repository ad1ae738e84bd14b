package matrices

import (
	"fmt"

	"github.com/afabl/decision-matrix/internal/db"
	"gorm.io/gorm"
)

// Migrate creates the app_matrix schema and table. The auth tables must exist first.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "app_matrix"); err != nil {
		return fmt.Errorf("ensure schema app_matrix: %w", err)
	}
	if err := d.AutoMigrate(&Matrix{}); err != nil {
		return fmt.Errorf("auto-migrate matrices: %w", err)
	}
	fk := `DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_matrices_user') THEN
			ALTER TABLE app_matrix.matrices ADD CONSTRAINT fk_matrices_user
				FOREIGN KEY (user_id) REFERENCES app_auth.users(id) ON DELETE CASCADE;
		END IF;
	END $$`
	if err := d.Exec(fk).Error; err != nil {
		return fmt.Errorf("add matrices owner constraint: %w", err)
	}
	return nil
}
