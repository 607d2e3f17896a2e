package mysql

import (
	"time"
)

// Type should match the package name
const Type = "mysql"

// Storage is a way to store run results in a MySQL database.
type Storage struct {
	DSN string `json:"dsn"`

	// Issue create statements for database schema
	Create bool `json:"create"`

	// Runs older than CheckExpiry will be deleted on calls
	// to Maintain(). If this is the zero value, no old runs
	// will be deleted.
	CheckExpiry time.Duration `json:"check_expiry,omitempty"`
}

// schema is the expected table schema (can be re-applied)
var schema = []string{
	"CREATE TABLE IF NOT EXISTS `runs` (`name` VARCHAR(512) NOT NULL, `timestamp` BIGINT NOT NULL, `results` MEDIUMTEXT NULL, PRIMARY KEY (`name`), UNIQUE (`timestamp`)) ENGINE = InnoDB;",
	"CREATE TABLE IF NOT EXISTS `endpoints` (`run` VARCHAR(512) NOT NULL, `position` INT NOT NULL, `title` VARCHAR(255) NOT NULL, `endpoint` TEXT NULL, `status` VARCHAR(16) NOT NULL, `mean_ns` BIGINT NULL, `failed` INT NOT NULL, PRIMARY KEY (`run`, `position`), FOREIGN KEY (`run`) REFERENCES `runs` (`name`) ON DELETE CASCADE) ENGINE = InnoDB;",
}
