package searchbench

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sommelier/searchbench/exporter/appinsights"
	"github.com/sommelier/searchbench/exporter/influxdb"
)

func exporterDecode(typeName string, config json.RawMessage) (Exporter, error) {
	switch typeName {
	case appinsights.Type:
		return appinsights.New(config)
	case influxdb.Type:
		return influxdb.New(config)
	default:
		return nil, errors.New(strings.Replace(errUnknownExporterType, "%T", typeName, -1))
	}
}

func exporterType(e interface{}) (string, error) {
	switch e.(type) {
	case appinsights.Exporter, *appinsights.Exporter:
		return appinsights.Type, nil
	case influxdb.Exporter, *influxdb.Exporter:
		return influxdb.Type, nil
	default:
		return "", fmt.Errorf(errUnknownExporterType, e)
	}
}
