// Package config loads the run configuration.
//
// The file is the INI file the warehouse scripts have always used (dwh.cfg),
// or the same sections written as YAML:
//
//	[CLUSTER]
//	HOST=redshift-cluster.example.us-west-2.redshift.amazonaws.com
//	DB_NAME=dev
//	DB_USER=awsuser
//	DB_PASSWORD=${REDSHIFT_PASSWORD}
//	DB_PORT=5439
//
//	[IAM]
//	ARN=arn:aws:iam::123456789012:role/dwhRole
//
//	[AWS]
//	KEY=
//	SECRET=
//
// Every key can be overridden from the environment as I94DW_<SECTION>_<KEY>,
// or from a .env file holding the same names. The loaded Config is passed
// explicitly to the components that need it; Load never modifies the process
// environment.
package config
