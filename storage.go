package searchbench

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/storage/github"
	"github.com/sommelier/searchbench/storage/mysql"
	"github.com/sommelier/searchbench/storage/s3"
	"github.com/sommelier/searchbench/storage/sql"
)

func storageDecode(typeName string, config json.RawMessage) (Storage, error) {
	switch typeName {
	case fs.Type:
		return fs.New(config)
	case s3.Type:
		return s3.New(config)
	case github.Type:
		return github.New(config)
	case sql.Type:
		return sql.New(config)
	case mysql.Type:
		return mysql.New(config)
	default:
		return nil, errors.New(strings.Replace(errUnknownStorageType, "%T", typeName, -1))
	}
}

func storageType(s interface{}) (string, error) {
	switch s.(type) {
	case fs.Storage, *fs.Storage:
		return fs.Type, nil
	case s3.Storage, *s3.Storage:
		return s3.Type, nil
	case github.Storage, *github.Storage:
		return github.Type, nil
	case sql.Storage, *sql.Storage:
		return sql.Type, nil
	case mysql.Storage, *mysql.Storage:
		return mysql.Type, nil
	default:
		return "", fmt.Errorf(errUnknownStorageType, s)
	}
}
