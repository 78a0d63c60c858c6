package nntp

// Named response codes recognized by the library. The catalogue covers
// RFC 3977 core, the AUTHINFO extension (RFC 4643), the streaming
// extension (RFC 4644), COMPRESS (RFC 8054), and the de-facto XFEATURE
// COMPRESS GZIP extension.
const (
	// 1xx — informational
	CodeHelpFollows        = 100
	CodeCapabilitiesFollow = 101
	CodeDate               = 111

	// 2xx — command completed
	CodeReadyPostingAllowed = 200
	CodeReadyNoPosting      = 201
	CodeStreamingOK         = 203
	CodeClosing             = 205
	CodeCompressionActive   = 206
	CodeGroupSelected       = 211
	CodeInformationFollows  = 215
	CodeArticleFollows      = 220
	CodeHeadFollows         = 221
	CodeBodyFollows         = 222
	CodeArticleExists       = 223
	CodeOverviewFollows     = 224
	CodeHeadersFollow       = 225
	CodeNewArticlesFollow   = 230
	CodeNewGroupsFollow     = 231
	CodeTransferred         = 235
	CodeCheckSend           = 238
	CodeTakeThisOK          = 239
	CodePosted              = 240
	CodeAuthAccepted        = 281
	CodeXFeatureEnabled     = 290

	// 3xx — continue
	CodeSendArticle  = 335
	CodeSendPost     = 340
	CodePassRequired = 381
	CodeContinueTLS  = 382
	CodeSASLContinue = 383

	// 4xx — command failed
	CodeServiceUnavailable   = 400
	CodeWrongMode            = 401
	CodeInternalFault        = 403
	CodeNoSuchGroup          = 411
	CodeNoGroupSelected      = 412
	CodeInvalidArticleNumber = 420
	CodeNoNextArticle        = 421
	CodeNoPreviousArticle    = 422
	CodeNoSuchArticleNumber  = 423
	CodeNoSuchArticle        = 430
	CodeCheckLater           = 431
	CodeTransferNotWanted    = 435
	CodeTransferTryLater     = 436
	CodeTransferRejected     = 437
	CodeCheckNotWanted       = 438
	CodeTakeThisRejected     = 439
	CodePostingNotAllowed    = 440
	CodePostingFailed        = 441
	CodeAuthRequired         = 480
	CodeAuthRejected         = 481
	CodeAuthOutOfSequence    = 482
	CodeEncryptionRequired   = 483

	// 5xx — command unknown or unavailable
	CodeUnknownCommand      = 500
	CodeSyntaxError         = 501
	CodePermissionDenied    = 502
	CodeFeatureNotSupported = 503
)
