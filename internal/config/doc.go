// Package config defines the format-agnostic model of an mgmtgrid
// deployment: registry settings, logging, the components to register, and
// the management scripts to run against them.
//
// The Loader and Converter interfaces are implemented per format; the HCL
// implementation lives in hcl_adapter. Nothing outside an adapter should
// depend on the concrete format.
package config
