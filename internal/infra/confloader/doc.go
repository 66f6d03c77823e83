// Package confloader loads configuration from files, .env files and the
// environment using koanf, and watches configuration files with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Environment variables (TOPTUBE_SECTION_KEY)
//  2. .env files
//  3. YAML configuration file
//  4. Default values already set on the target struct
package confloader
