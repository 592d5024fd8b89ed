package identity

var Classify = classify

const CredentialStorageKey = StorageKey
