package telemetry

import "go.opentelemetry.io/otel/attribute"

func serviceNameAttr(name string) attribute.KeyValue {
	return attribute.String("service.name", name)
}
