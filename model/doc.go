// Package model holds the data types shared by the runtime services: task
// templates and instances, data blocks and runlevels. Subpackages carry no
// scheduling logic.
package model
