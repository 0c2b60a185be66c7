// Package urn builds the stable string identifiers that address
// entities in the metadata catalog. Identifiers are constructed purely
// from derived fields so that re-running extraction against unchanged
// source metadata yields byte-identical identifiers.
//
// Comma is the reserved field separator of the identifier grammar; all
// name fields must be comma-free before they reach this package.
package urn

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DataPlatform returns the platform identifier, e.g.
// "urn:li:dataPlatform:postgres".
func DataPlatform(platform string) string {
	return "urn:li:dataPlatform:" + platform
}

// PlatformInstance returns the identifier of a named platform instance.
func PlatformInstance(platform, instance string) string {
	return fmt.Sprintf("urn:li:dataPlatformInstance:(%s,%s)", DataPlatform(platform), instance)
}

// DataFlow returns the flow identifier. When a platform instance is
// configured it is prefixed onto the flow id.
func DataFlow(orchestrator, flowID, cluster, platformInstance string) string {
	id := flowID
	if platformInstance != "" {
		id = platformInstance + "." + flowID
	}
	return fmt.Sprintf("urn:li:dataFlow:(%s,%s,%s)", orchestrator, id, cluster)
}

// DataJob returns the job identifier, scoped to its owning flow.
func DataJob(orchestrator, flowID, jobID, cluster, platformInstance string) string {
	flow := DataFlow(orchestrator, flowID, cluster, platformInstance)
	return fmt.Sprintf("urn:li:dataJob:(%s,%s)", flow, jobID)
}

// Dataset returns the dataset identifier for a fully qualified table
// name scoped to (platform, env, optional platform instance).
func Dataset(platform, name, env, platformInstance string) string {
	qualified := name
	if platformInstance != "" {
		qualified = platformInstance + "." + name
	}
	return fmt.Sprintf("urn:li:dataset:(%s,%s,%s)", DataPlatform(platform), qualified, strings.ToUpper(env))
}

// containerGUID derives a stable guid from the canonical form of a
// container key: sorted "k=v" pairs joined by newlines, hashed.
func containerGUID(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte('\n')
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// DatabaseContainer returns the container identifier for a database.
func DatabaseContainer(platform, instance, env, database string) string {
	return "urn:li:container:" + containerGUID(map[string]string{
		"platform": DataPlatform(platform),
		"instance": instance,
		"env":      strings.ToUpper(env),
		"database": database,
	})
}

// SchemaContainer returns the container identifier for a schema within
// a database.
func SchemaContainer(platform, instance, env, database, schema string) string {
	return "urn:li:container:" + containerGUID(map[string]string{
		"platform": DataPlatform(platform),
		"instance": instance,
		"env":      strings.ToUpper(env),
		"database": database,
		"schema":   schema,
	})
}
