// Package factory builds pluggable modules from configuration.
//
// A module is named by ModuleConfig.Type and configured by the raw
// ModuleConfig.Conf map, which the registered Factory decodes with Decode.
// Metrics sinks and candidate generators are both created this way, so a
// YAML entry such as
//
//	sinks:
//	  - type: influx
//	    conf: {url: "http://influx:8086", bucket: plans}
//
// resolves to the factory registered under "influx".
package factory
