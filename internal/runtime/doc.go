// Package runtime defines the narrow container-runtime capability the
// orchestrator depends on, together with the labels realmenv puts on the
// containers it creates. Implementations live in subpackages.
package runtime
