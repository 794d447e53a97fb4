// Copyright 2025 Certen Protocol
//
// Package upload implements presigned, HMAC-signed, expiring upload
// tickets for large genomic files.

package upload

import "time"

// FileType is the closed set of supported genomic file formats.
type FileType string

const (
	TypeVCF   FileType = "VCF"
	TypeFASTQ FileType = "FASTQ"
	TypeBAM   FileType = "BAM"
	TypeCRAM  FileType = "CRAM"
)

// Status is the closed set of upload ticket states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
	StatusFailed    Status = "FAILED"
)

const bytesPerMiB = 1024 * 1024
const bytesPerGiB = 1024 * bytesPerMiB

// maxSizeBytes is the per-file-type size ceiling enforced at upload
// ticket creation.
var maxSizeBytes = map[FileType]int64{
	TypeVCF:   100 * bytesPerMiB,
	TypeFASTQ: 10 * bytesPerGiB,
	TypeBAM:   5 * bytesPerGiB,
	TypeCRAM:  2 * bytesPerGiB,
}

// allowedExtensions is the per-type extension allow-list.
var allowedExtensions = map[FileType][]string{
	TypeVCF:   {".vcf", ".vcf.gz"},
	TypeFASTQ: {".fastq", ".fastq.gz", ".fq", ".fq.gz"},
	TypeBAM:   {".bam"},
	TypeCRAM:  {".cram"},
}

// Upload is a single file-upload ticket.
type Upload struct {
	UploadID      string
	UserID        string
	Filename      string
	FileType      FileType
	Size          int64
	Checksum      string
	Status        Status
	CreatedAt     time.Time
	ExpiresAt     time.Time
	PresignedURL  string
	ActualChecksum string
}
