package sdk

const (
	clientsEndpoint     = "/clients"
	sizeEndpoint        = "/clients/size"
	snapshotEndpoint    = "/snapshot"
	submitEndpoint      = "/rounds/submissions"
	submitCBOREndpoint  = "/rounds/submissions/cbor"
	roundStatusEndpoint = "/rounds/current"
)
